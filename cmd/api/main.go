package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rakibulbd/karobar-backend/api/routes"
	"github.com/rakibulbd/karobar-backend/internal/billing"
	"github.com/rakibulbd/karobar-backend/internal/customers"
	"github.com/rakibulbd/karobar-backend/internal/ledger"
	"github.com/rakibulbd/karobar-backend/internal/orders"
	"github.com/rakibulbd/karobar-backend/internal/payments"
	"github.com/rakibulbd/karobar-backend/internal/products"
	"github.com/rakibulbd/karobar-backend/internal/smscredits"
	"github.com/rakibulbd/karobar-backend/internal/subscriptions"
	"github.com/rakibulbd/karobar-backend/pkg/config"
	"github.com/rakibulbd/karobar-backend/pkg/db"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
	"github.com/rakibulbd/karobar-backend/pkg/metrics"
	"github.com/rakibulbd/karobar-backend/pkg/migrate"
	"github.com/rakibulbd/karobar-backend/pkg/redis"
	"github.com/rakibulbd/karobar-backend/pkg/shurjopay"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gateway := shurjopay.New(cfg.Gateway, logg)

	conn := dbClient.DB()
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}
	productsSvc, err := products.NewService(products.NewRepository(conn), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), products.NewRepository(conn), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	customersSvc, err := customers.NewService(customers.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}
	subscriptionsSvc, err := subscriptions.NewService(subscriptions.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create subscriptions service", err)
		os.Exit(1)
	}
	smsCreditsSvc, err := smscredits.NewService(smscredits.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create sms credits service", err)
		os.Exit(1)
	}
	catalogRepo := billing.NewRepository(conn)
	paymentsSvc, err := payments.NewService(
		payments.NewRepository(conn),
		catalogRepo,
		subscriptionsSvc,
		smsCreditsSvc,
		gateway,
		dbClient,
		logg,
		paymentMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, redisClient, registry, routes.Pingers{
		DB:    dbClient,
		Redis: redisClient,
	}, routes.Services{
		Ledger:        ledgerSvc,
		Orders:        ordersSvc,
		Products:      productsSvc,
		Customers:     customersSvc,
		Payments:      paymentsSvc,
		Catalog:       catalogRepo,
		Subscriptions: subscriptionsSvc,
		SmsCredits:    smsCreditsSvc,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
