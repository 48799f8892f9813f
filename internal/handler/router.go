// internal/handler/router.go
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-directory/internal/controller"
	"github.com/unclebandit/campaign-directory/internal/metrics"
)

const apiPrefix = "/api/v1"

var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Campaigns      *controller.CampaignController
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	// Health is optional; nil means the service has nothing to ping.
	Health Pinger
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	log := cfg.Log
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	if cfg.Metrics != nil {
		r.Use(Instrument(cfg.Metrics))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		controller.NotFound(w, log)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		controller.MethodNotAllowed(w, log, allowedMethods(r))
	})

	r.Get("/healthz", healthHandler(cfg.Health, log))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	c := cfg.Campaigns
	r.Get(apiPrefix+"/", func(w http.ResponseWriter, r *http.Request) {
		controller.JSON(w, log, http.StatusOK, map[string]string{"message": "Hello world!"})
	})
	r.Get(apiPrefix+"/campaigns", c.ListCampaigns)
	r.Post(apiPrefix+"/campaigns", c.CreateCampaign)
	r.Get(apiPrefix+"/campaigns/{id}", c.GetCampaign)
	r.Put(apiPrefix+"/campaigns/{id}", c.UpdateCampaign)
	r.Delete(apiPrefix+"/campaigns/{id}", c.DeleteCampaign)

	return r
}

// allowedMethods lists the methods registered for the request path, in the
// form used by the Allow header.
func allowedMethods(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return ""
	}
	var allowed []string
	for _, m := range routeMethods {
		if rctx.Routes.Match(chi.NewRouteContext(), m, r.URL.Path) {
			allowed = append(allowed, m)
		}
	}
	return strings.Join(allowed, ", ")
}

func healthHandler(p Pinger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				controller.JSON(w, log, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		controller.JSON(w, log, http.StatusOK, map[string]string{"status": "ok"})
	}
}
