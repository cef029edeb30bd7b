package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"CatalogView/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	// ReloadLimitPerMin caps POST /catalog/reload per client IP. Zero
	// disables the limit.
	ReloadLimitPerMin int
}

const reloadWindow = time.Minute

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	if s.Log == nil {
		s.Log = deps.Log
	}
	if deps.ReloadLimitPerMin > 0 && s.ReloadLimiter == nil {
		s.ReloadLimiter = kit.NewIPRateLimiter(deps.ReloadLimitPerMin, reloadWindow)
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	})
	r.Mount("/", s.Routes())
	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	// "/products/" and "/products" are the same listing.
	r.Use(chimw.StripSlashes)
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		deps.Log.Info("metrics endpoint disabled")
		return
	}
	if deps.MetricsToken == "" {
		deps.Log.Warn("METRICS_TOKEN is empty, /metrics will refuse every scrape")
	}

	h := promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{
		Registry:          deps.Registry,
		ErrorLog:          zap.NewStdLog(deps.Log),
		EnableOpenMetrics: true,
	})
	r.With(kit.MetricsAuth(deps.MetricsToken)).Handle("/metrics", h)
}
