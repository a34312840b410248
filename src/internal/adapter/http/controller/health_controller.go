package controller

import (
	"net/http"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/gorilla/mux"
)

type HealthController struct{}

func NewHealthController() *HealthController {
	return &HealthController{}
}

func (c *HealthController) RegisterRoutes(router *mux.Router, _ mux.MiddlewareFunc) {
	router.HandleFunc("/health", c.health).Methods(http.MethodGet)
}

func (c *HealthController) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, commons.SuccessResponse("Service is healthy", map[string]string{"status": "UP"}))
}

