package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rakibulbd/karobar-backend/api/controllers"
	"github.com/rakibulbd/karobar-backend/api/middleware"
	"github.com/rakibulbd/karobar-backend/pkg/config"
	"github.com/rakibulbd/karobar-backend/pkg/logger"
	"github.com/rakibulbd/karobar-backend/pkg/redis"
)

// Services bundles everything the router wires into controllers.
type Services struct {
	Ledger        controllers.LedgerService
	Orders        controllers.OrdersService
	Products      controllers.ProductsService
	Customers     controllers.CustomersService
	Payments      controllers.PaymentsService
	Catalog       controllers.BillingCatalog
	Subscriptions controllers.SubscriptionReader
	SmsCredits    controllers.SmsCreditReader
}

// Pingers carries the dependencies the readiness endpoint checks.
type Pingers struct {
	DB    controllers.Pinger
	Redis controllers.Pinger
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	pingers Pingers,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	verifyPolicy := middleware.NewRateLimitPolicy(
		"payment-verify",
		cfg.Billing.VerifyWindow,
		cfg.Billing.VerifyLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers.DB, pingers.Redis))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// The gateway redirects the customer's browser here after checkout, so
	// this route cannot sit behind bearer auth.
	r.With(middleware.RateLimit(verifyPolicy, redisClient, logg)).
		Get("/api/v1/billing/payments/verify", controllers.PaymentVerify(services.Payments, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/ledger", func(r chi.Router) {
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", controllers.LedgerAccountList(services.Ledger, logg))
				r.Post("/", controllers.LedgerAccountCreate(services.Ledger, logg))
				r.Get("/{accountId}/transactions", controllers.LedgerTransactionList(services.Ledger, logg))
			})
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", controllers.LedgerTransactionCreate(services.Ledger, logg))
				r.Post("/{transactionId}/verify", controllers.LedgerTransactionVerify(services.Ledger, logg))
				r.Post("/{transactionId}/cancel", controllers.LedgerTransactionCancel(services.Ledger, logg))
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(services.Orders, logg))
			r.Post("/", controllers.OrderCreate(services.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(services.Orders, logg))
			r.Post("/{orderId}/payments", controllers.OrderAddPayment(services.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(services.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(services.Products, logg))
			r.Post("/", controllers.ProductCreate(services.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(services.Products, logg))
			r.Post("/{productId}/stock", controllers.ProductAdjustStock(services.Products, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(services.Customers, logg))
			r.Post("/", controllers.CustomerCreate(services.Customers, logg))
			r.Get("/{customerId}", controllers.CustomerDetail(services.Customers, logg))
			r.Patch("/{customerId}", controllers.CustomerUpdate(services.Customers, logg))
			r.Post("/{customerId}/settle-due", controllers.CustomerSettleDue(services.Customers, logg))
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/plans", controllers.BillingPlanList(services.Catalog, logg))
			r.Get("/sms-packages", controllers.SmsPackageList(services.Catalog, logg))
			r.Get("/status", controllers.BillingStatus(services.Subscriptions, services.SmsCredits, logg))
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", controllers.PaymentList(services.Payments, logg))
				r.Post("/", controllers.PaymentInitiate(services.Payments, logg))
			})
		})
	})

	return r
}
