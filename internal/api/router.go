package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/quantum/internal/api/handlers"
	"github.com/wonny/quantum/pkg/logger"
)

// Handlers groups the route handlers; Metrics may be nil
type Handlers struct {
	Health   *handlers.HealthHandler
	Projects *handlers.ProjectHandler
	Pipeline *handlers.PipelineHandler
	Metrics  http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: route table
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Health).Methods("GET")
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/projects", h.Projects.List).Methods("GET")

	api.HandleFunc("/jobs", h.Pipeline.GetJobs).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", h.Pipeline.RunJob).Methods("POST")
	api.HandleFunc("/cycles/last", h.Pipeline.GetLastCycle).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
