package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/facturante/facturante/internal/auth"
	"github.com/facturante/facturante/internal/folio"
	"github.com/facturante/facturante/internal/invoice"
	"github.com/facturante/facturante/internal/masterdata/clients"
	"github.com/facturante/facturante/internal/masterdata/products"
	"github.com/facturante/facturante/internal/masterdata/sellers"
	"github.com/facturante/facturante/internal/masterdata/terms"
	"github.com/facturante/facturante/internal/observability"
	"github.com/facturante/facturante/internal/payment"
	"github.com/facturante/facturante/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AuthMiddleware  *auth.Middleware
	AuthHandler     *auth.Handler
	FolioHandler    *folio.Handler
	InvoiceHandler  *invoice.Handler
	PaymentHandler  *payment.Handler
	ClientsHandler  *clients.Handler
	SellersHandler  *sellers.Handler
	ProductsHandler *products.Handler
	TermsHandler    *terms.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(params.Metrics.Middleware)
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(params.AuthMiddleware.Require)

		api.Route("/folios", params.FolioHandler.MountRoutes)
		api.Route("/invoices", params.InvoiceHandler.MountRoutes)
		api.Route("/payments", params.PaymentHandler.MountRoutes)

		api.Route("/clients", params.ClientsHandler.MountRoutes)
		api.Route("/sellers", params.SellersHandler.MountRoutes)
		api.Route("/products", params.ProductsHandler.MountRoutes)
		api.Route("/payment-terms", params.TermsHandler.MountRoutes)

		api.Route("/apikeys", params.AuthHandler.MountRoutes)

		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
