package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/gorilla/mux"
)

type FraudService interface {
	ListPendingFraudCases(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error)
	ListFraudCasesByStatus(ctx context.Context, status string) (commons.Response[[]models.FraudCaseResponse], error)
	ListAllFraudCases(ctx context.Context) (commons.Response[[]models.FraudCaseResponse], error)
	SubmitReview(ctx context.Context, req models.FraudReviewRequest) (commons.Response[models.FraudReviewResponse], error)
}

type FraudController struct {
	service FraudService
}

func NewFraudController(service FraudService) *FraudController {
	return &FraudController{service: service}
}

func (c *FraudController) RegisterRoutes(router *mux.Router, authMiddleware mux.MiddlewareFunc) {
	sub := router.PathPrefix("/fraud").Subrouter()
	if authMiddleware != nil {
		sub.Use(authMiddleware)
	}
	sub.HandleFunc("/pending", c.listPending).Methods(http.MethodGet)
	sub.HandleFunc("/status/{status}", c.listByStatus).Methods(http.MethodGet)
	sub.HandleFunc("/all", c.listAll).Methods(http.MethodGet)
	sub.HandleFunc("/review", c.review).Methods(http.MethodPost)
}

func (c *FraudController) listPending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.ListPendingFraudCases(r.Context())
	respond(w, r, start, response, err)
}

func (c *FraudController) listByStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.ListFraudCasesByStatus(r.Context(), mux.Vars(r)["status"])
	respond(w, r, start, response, err)
}

func (c *FraudController) listAll(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.ListAllFraudCases(r.Context())
	respond(w, r, start, response, err)
}

func (c *FraudController) review(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.FraudReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest[models.FraudReviewResponse](w, r, start, err)
		return
	}
	logRequest(r, req)

	response, err := c.service.SubmitReview(r.Context(), req)
	respond(w, r, start, response, err)
}
