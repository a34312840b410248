package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/gorilla/mux"
)

// RateLimitStore is the part of the limiter the admin endpoints manage.
type RateLimitStore interface {
	Size(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

type AdminController struct {
	store         RateLimitStore
	enabled       bool
	configuration map[string]any
	audit         audit.Recorder
}

func NewAdminController(store RateLimitStore, enabled bool, configuration map[string]any, recorder audit.Recorder) *AdminController {
	if recorder == nil {
		recorder = audit.Discard{}
	}
	return &AdminController{
		store:         store,
		enabled:       enabled,
		configuration: configuration,
		audit:         recorder,
	}
}

func (c *AdminController) RegisterRoutes(router *mux.Router, authMiddleware mux.MiddlewareFunc) {
	sub := router.PathPrefix("/admin/rate-limit").Subrouter()
	if authMiddleware != nil {
		sub.Use(authMiddleware)
	}
	sub.HandleFunc("/status", c.status).Methods(http.MethodGet)
	sub.HandleFunc("/clear", c.clear).Methods(http.MethodPost)
}

func (c *AdminController) status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	size, err := c.store.Size(r.Context())
	if err != nil {
		respond(w, r, start, commons.ErrorResponse[models.RateLimitStatusResponse]("Failed to read rate limit store"), err)
		return
	}

	response := commons.SuccessResponse("Rate limit status retrieved", models.RateLimitStatusResponse{
		Enabled:       c.enabled,
		StoreSize:     size,
		Configuration: c.configuration,
	})
	respond(w, r, start, response, nil)
}

func (c *AdminController) clear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	if err := c.store.Clear(r.Context()); err != nil {
		respond(w, r, start, commons.ErrorResponse[map[string]string]("Failed to clear rate limit store"), err)
		return
	}

	c.audit.Record(r.Context(), audit.ActionRateLimitCleared, map[string]any{
		"requestedBy": requestedBy(r),
	})

	respond(w, r, start, commons.SuccessResponse("Rate limit store cleared", map[string]string{"status": "cleared"}), nil)
}

func requestedBy(r *http.Request) string {
	if id, _, ok := r.BasicAuth(); ok {
		return id
	}
	return "anonymous"
}
