package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/strefethen/music-agent-go/internal/api"
)

// RegisterRoutes wires system routes to the router.
func RegisterRoutes(router chi.Router, service *Service) {
	router.Method(http.MethodGet, "/v1/system/info", api.Handler(getSystemInfo(service)))
}

// getSystemInfo handles GET /v1/system/info
func getSystemInfo(service *Service) func(w http.ResponseWriter, r *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteResource(w, http.StatusOK, service.Info(r.Context()))
	}
}
