package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the export endpoints with the operational ones (/health, /metrics).
// Requests carry no deadline of their own; exports run until the client goes away.
func NewRouter(exports *ExportHandler, version string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, HealthResponseDTO{Status: "ok", Version: version})
	})
	r.Handle("/metrics", promhttp.Handler())

	exports.RegisterRoutes(r)
	return r
}
