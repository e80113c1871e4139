package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sipico/cf-usage-dashboard/internal/metrics"
	"github.com/sipico/cf-usage-dashboard/internal/middleware"
)

// NewRouter creates the dashboard router.
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxBodySize(1 << 20))
	r.Use(middleware.HTTPLogging(h.logger, nil))
	r.Use(metrics.Middleware)
	r.Use(h.recoverer)

	r.Get("/", h.HandleRoot)
	r.Post("/login", h.HandleLogin)
	r.Get("/health", h.HandleHealth)

	// Method mismatches on known paths 404 like unknown paths do.
	r.MethodNotAllowed(http.NotFound)

	return r
}

// recoverer is the outermost catch: a panic anywhere below becomes a 500
// with the message in the body.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("request panicked",
					"method", r.Method, "path", r.URL.Path, "panic", rec)
				http.Error(w, fmt.Sprintf("internal error: %v", rec), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
