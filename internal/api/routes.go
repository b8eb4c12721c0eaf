package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes.
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/chart", handler.GetChart).Methods("GET")
	api.HandleFunc("/quote", handler.GetQuote).Methods("GET")
	api.HandleFunc("/holdings", handler.GetHoldings).Methods("GET")
	api.HandleFunc("/news", handler.GetNews).Methods("GET")
	api.HandleFunc("/posts/{handle}", handler.GetPosts).Methods("GET")
	api.HandleFunc("/videos", handler.GetVideos).Methods("GET")
	api.HandleFunc("/live", handler.GetLive).Methods("GET")

	return r
}
