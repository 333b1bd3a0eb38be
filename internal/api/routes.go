package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Caring-Indians-2020/backend-medKit/internal/metrics"
)

// SetupRoutes configures and returns the HTTP router
func SetupRoutes(a *API) *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.MetricsMiddleware)

	// Bed directory endpoints
	r.HandleFunc("/beds", a.ListBedsHandler).Methods("GET")
	r.HandleFunc("/beds/{bedId}", a.GetBedHandler).Methods("GET")

	// Live-view endpoint, one viewer session per connection
	r.HandleFunc("/beds/{bedId}/realtime", a.RealtimeHandler).Methods("GET")

	// Patient maintenance
	r.HandleFunc("/patients/delete", a.DeletePatientHandler).Methods("DELETE")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).Methods("GET")

	return r
}
