package controllers

import (
	"net/http"

	"github.com/rakibulbd/karobar-backend/api/middleware"
	"github.com/rakibulbd/karobar-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if business := middleware.BusinessNameFromContext(r.Context()); business != "" {
			payload["business_name"] = business
		}
		responses.WriteSuccess(w, payload)
	}
}
