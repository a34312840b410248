package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/gorilla/mux"
)

type CurrencyService interface {
	GetRate(ctx context.Context, req models.GetRateRequest) (commons.Response[models.RateResponse], error)
	ConvertAmount(ctx context.Context, req models.ConvertRequest) (commons.Response[models.ConvertResponse], error)
	GetRates(ctx context.Context) (commons.Response[models.RatesSnapshotResponse], error)
	RefreshRates(ctx context.Context) (commons.Response[models.RefreshRatesResponse], error)
}

type CurrencyController struct {
	service CurrencyService
}

func NewCurrencyController(service CurrencyService) *CurrencyController {
	return &CurrencyController{service: service}
}

// RegisterRoutes exposes the read endpoints publicly; only refresh needs
// credentials.
func (c *CurrencyController) RegisterRoutes(router *mux.Router, authMiddleware mux.MiddlewareFunc) {
	sub := router.PathPrefix("/currency").Subrouter()
	sub.HandleFunc("/rate", c.getRate).Methods(http.MethodGet)
	sub.HandleFunc("/convert", c.convert).Methods(http.MethodGet)
	sub.HandleFunc("/rates", c.getRates).Methods(http.MethodGet)

	var refresh http.Handler = http.HandlerFunc(c.refresh)
	if authMiddleware != nil {
		refresh = authMiddleware(refresh)
	}
	sub.Handle("/refresh", refresh).Methods(http.MethodPost)
}

func (c *CurrencyController) getRate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	req := models.GetRateRequest{From: query.Get("from"), To: query.Get("to")}
	logRequest(r, req)

	response, err := c.service.GetRate(r.Context(), req)
	respond(w, r, start, response, err)
}

func (c *CurrencyController) convert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	req := models.ConvertRequest{Amount: query.Get("amount"), From: query.Get("from"), To: query.Get("to")}
	logRequest(r, req)

	response, err := c.service.ConvertAmount(r.Context(), req)
	respond(w, r, start, response, err)
}

func (c *CurrencyController) getRates(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.GetRates(r.Context())
	respond(w, r, start, response, err)
}

func (c *CurrencyController) refresh(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	response, err := c.service.RefreshRates(r.Context())
	respond(w, r, start, response, err)
}
