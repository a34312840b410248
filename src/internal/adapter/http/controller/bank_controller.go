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

const bankSecretHeader = "Bank-Secret"

type BankService interface {
	GetBanks(ctx context.Context) (commons.Response[[]models.BankResponse], error)
	IssueBankToken(ctx context.Context, secret string, req models.BankTokenRequest) (commons.Response[models.BankTokenResponse], error)
}

type BankController struct {
	service BankService
}

func NewBankController(service BankService) *BankController {
	return &BankController{service: service}
}

// RegisterRoutes registers the bank listing and token endpoints. The token
// endpoint authenticates with the Bank-Secret header rather than basic auth.
func (c *BankController) RegisterRoutes(router *mux.Router, _ mux.MiddlewareFunc) {
	router.HandleFunc("/banks", c.getBanks).Methods(http.MethodGet)
	router.HandleFunc("/auth/bank-token", c.issueToken).Methods(http.MethodPost)
}

func (c *BankController) getBanks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.GetBanks(r.Context())
	respond(w, r, start, response, err)
}

func (c *BankController) issueToken(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.BankTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest[models.BankTokenResponse](w, r, start, err)
		return
	}
	logRequest(r, req)

	response, err := c.service.IssueBankToken(r.Context(), r.Header.Get(bankSecretHeader), req)
	respond(w, r, start, response, err)
}
