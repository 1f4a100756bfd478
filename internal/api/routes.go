package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

const apiPrefix = "/api/v1"

// SetupRoutes registers the status API. Every route also answers OPTIONS so
// the CORS middleware can serve preflight requests.
func SetupRoutes(router *mux.Router, handler *Handler) {
	v1 := router.PathPrefix(apiPrefix).Subrouter()
	v1.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/jobcount", handler.GetLatest).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/jobcount/history", handler.GetHistory).Methods(http.MethodGet, http.MethodOptions)
	v1.HandleFunc("/jobcount/run", handler.RunNow).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/jobs", handler.ListJobs).Methods(http.MethodGet, http.MethodOptions)
}
