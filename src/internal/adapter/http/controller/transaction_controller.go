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

type TransactionService interface {
	Settle(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error)
	GetTransaction(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error)
}

type TransactionController struct {
	service TransactionService
}

func NewTransactionController(service TransactionService) *TransactionController {
	return &TransactionController{service: service}
}

func (c *TransactionController) RegisterRoutes(router *mux.Router, authMiddleware mux.MiddlewareFunc) {
	sub := router.PathPrefix("/transactions").Subrouter()
	if authMiddleware != nil {
		sub.Use(authMiddleware)
	}
	sub.HandleFunc("/create-transaction", c.createTransaction).Methods(http.MethodPost)
	sub.HandleFunc("/{id}", c.getTransaction).Methods(http.MethodGet)
}

func (c *TransactionController) createTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest[models.TransactionResponse](w, r, start, err)
		return
	}
	logRequest(r, req)

	response, err := c.service.Settle(r.Context(), req)
	respond(w, r, start, response, err)
}

func (c *TransactionController) getTransaction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.GetTransaction(r.Context(), mux.Vars(r)["id"])
	respond(w, r, start, response, err)
}
