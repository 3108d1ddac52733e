package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contactevin2u/orderops-api/api/controllers"
	"github.com/contactevin2u/orderops-api/api/middleware"
	"github.com/contactevin2u/orderops-api/internal/accrual"
	"github.com/contactevin2u/orderops-api/internal/balance"
	"github.com/contactevin2u/orderops-api/internal/idempotency"
	"github.com/contactevin2u/orderops-api/internal/ledger"
	"github.com/contactevin2u/orderops-api/internal/orders"
	"github.com/contactevin2u/orderops-api/internal/reports"
	"github.com/contactevin2u/orderops-api/pkg/config"
	"github.com/contactevin2u/orderops-api/pkg/db"
	"github.com/contactevin2u/orderops-api/pkg/logger"
	"github.com/contactevin2u/orderops-api/pkg/redis"
)

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisPinger redis.Pinger
	Orders      orders.Service
	OrdersRepo  orders.Repository
	Accrual     accrual.Service
	Ledger      ledger.Service
	Balance     *balance.Calculator
	Reports     reports.Service
	Idempotency idempotency.Service
	Metrics     prometheus.Gatherer
}

// NewRouter wires all routes behind the shared middleware stack.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DBPinger, p.RedisPinger))
	})

	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(p.Idempotency, p.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(p.Orders, p.Logger))
			r.Get("/", controllers.OrderList(p.Orders, p.Logger))
			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(p.Orders, p.Logger))
				r.Get("/balance", controllers.OrderBalance(p.OrdersRepo, p.Balance, p.Logger))
				r.Post("/accrue", controllers.OrderAccrue(p.OrdersRepo, p.Accrual, p.Logger))
				r.Post("/adjustments", controllers.AdjustmentCreate(p.OrdersRepo, p.Ledger, p.Logger))
				r.Post("/events", controllers.EventCreate(p.Orders, p.Logger))
				r.Post("/payments", controllers.PaymentCreate(p.Orders, p.Logger))
				r.Post("/payments/{paymentId}/void", controllers.PaymentVoid(p.Orders, p.Logger))
			})
		})

		r.Get("/reports/aging", controllers.AgingReport(p.Reports, p.Logger))
	})

	return r
}
