package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mortiou/m-book/internal/service"
	"github.com/Mortiou/m-book/pkg/health"
	"github.com/Mortiou/m-book/pkg/middleware"
)

// searchMaxAge is the public cache lifetime of search responses.
const searchMaxAge = 60 * time.Second

// RouterConfig carries the edge settings of the HTTP surface.
type RouterConfig struct {
	ServiceName    string
	AdminToken     string
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
	PprofEnabled   bool
	PprofCIDRs     []string
	PublicBaseURL  string
}

// NewRouter creates a chi router with all catalog routes registered. ctx
// bounds the lifetime of the rate limiter's background cleanup.
func NewRouter(
	ctx context.Context,
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	searchHandler := NewSearchHandler(catalogService, logger)
	bookHandler := NewBookHandler(catalogService, cfg.PublicBaseURL, logger)

	// Search endpoints share one per-IP limiter.
	limiter := middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	r.Group(func(r chi.Router) {
		r.Use(limiter)
		r.Use(middleware.CacheControl(searchMaxAge))

		r.Get("/api/search", searchHandler.Basic)
		r.Get("/api/search/advanced", searchHandler.Advanced)

		r.Route("/api/v1/search", func(r chi.Router) {
			r.Get("/", searchHandler.Basic)
			r.Get("/advanced", searchHandler.Advanced)
			r.Get("/suggest", searchHandler.Suggest)
			r.Get("/facets", searchHandler.Facets)
		})
	})

	r.Route("/api/v1/books", func(r chi.Router) {
		r.Get("/", bookHandler.ListBooks)
		r.Get("/{id}", bookHandler.GetBook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.AdminToken, logger))
			r.Use(ContentTypeJSON)
			r.Post("/", bookHandler.CreateBook)
			r.Delete("/{id}", bookHandler.DeleteBook)
		})
	})

	r.Get("/sitemap.xml", bookHandler.Sitemap)

	return r
}
