package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-pos/odyssey-pos/internal/inventory"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/sales"
	"github.com/odyssey-pos/odyssey-pos/jobs"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SalesHandler     *sales.Handler
	InventoryHandler *inventory.Handler
	ProductsHandler  *products.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	// DB is pinged by /readyz when set.
	DB Pinger
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if params.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := params.DB.Ping(ctx); err != nil {
				if params.Logger != nil {
					params.Logger.Warn("readiness check failed", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "database unreachable")
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if params.SalesHandler != nil {
			r.Route("/sales", params.SalesHandler.MountRoutes)
		}
		if params.InventoryHandler != nil {
			r.Route("/inventory", params.InventoryHandler.MountRoutes)
		}
		if params.ProductsHandler != nil {
			r.Route("/products", params.ProductsHandler.MountRoutes)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
