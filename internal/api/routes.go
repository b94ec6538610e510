package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Read-only ingestion monitoring routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/stats", handler.GetStats).Methods("GET")
	api.HandleFunc("/checkpoints", handler.GetCheckpoints).Methods("GET")
	api.HandleFunc("/progress/{run_id}", handler.GetProgress).Methods("GET")

	return r
}
