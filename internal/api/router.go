// Package api exposes the application operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"incubator-portal/internal/common/logger"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// NewRouter builds the HTTP surface: the application API plus /health, /ready
// and /metrics.
func NewRouter(svc Service, checks map[string]ReadinessCheck, log logger.Logger) *mux.Router {
	h := &handlers{svc: svc}

	r := mux.NewRouter()
	r.Use(requestLogging(log), requestMetrics, recoverPanic)

	r.HandleFunc("/health", health).Methods(http.MethodGet)
	r.HandleFunc("/ready", ready(checks)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/applications/apply", h.apply).Methods(http.MethodPost)
	api.HandleFunc("/applications", h.list).Methods(http.MethodGet)
	api.HandleFunc("/applications/search", h.search).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/applications/{id}/status", h.setStatus).Methods(http.MethodPatch)
	api.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func ready(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failed := make(map[string]string)
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not ready",
				"checks": failed,
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
