package controller_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/controller"
	"github.com/api-sage/settlement-hub/src/internal/adapter/http/middleware"
	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/adapter/interbank"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type transactionServiceStub struct {
	settleFn         func(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error)
	getTransactionFn func(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error)
}

func (s transactionServiceStub) Settle(ctx context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
	return s.settleFn(ctx, req)
}

func (s transactionServiceStub) GetTransaction(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error) {
	return s.getTransactionFn(ctx, id)
}

func transferBody() map[string]any {
	return map[string]any{
		"accountNumber":   "SRC001",
		"bankName":        "Test Bank",
		"toAccountNumber": "DST001",
		"toBankName":      "Test Bank",
		"currency":        "USD",
		"amount":          "100.00",
	}
}

func TestCreateTransaction_Success(t *testing.T) {
	var got models.CreateTransactionRequest
	svc := transactionServiceStub{settleFn: func(_ context.Context, req models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
		got = req
		return commons.SuccessResponse("Transaction completed successfully", models.TransactionResponse{ID: "tx-1", Status: "COMPLETED"}), nil
	}}
	router := newRouter(controller.NewTransactionController(svc))

	rr := do(t, router, http.MethodPost, "/transactions/create-transaction", transferBody(), true)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected json content type, got %q", rr.Header().Get("Content-Type"))
	}
	body := decode[models.TransactionResponse](t, rr)
	if !body.Success || body.Message != "Transaction completed successfully" || body.Data == nil || body.Data.ID != "tx-1" {
		t.Fatalf("unexpected body %+v", body)
	}
	if got.AccountNumber != "SRC001" || !got.Amount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected request to be decoded, got %+v", got)
	}
}

func TestCreateTransaction_RequiresCredentials(t *testing.T) {
	called := false
	svc := transactionServiceStub{settleFn: func(context.Context, models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
		called = true
		return commons.Response[models.TransactionResponse]{}, nil
	}}
	router := newRouter(controller.NewTransactionController(svc))

	rr := do(t, router, http.MethodPost, "/transactions/create-transaction", transferBody(), false)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if called {
		t.Fatalf("expected service not to be called")
	}
}

func TestCreateTransaction_RejectsMalformedBody(t *testing.T) {
	svc := transactionServiceStub{settleFn: func(context.Context, models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
		t.Fatalf("service must not be called")
		return commons.Response[models.TransactionResponse]{}, nil
	}}
	router := newRouter(controller.NewTransactionController(svc))

	rr := do(t, router, http.MethodPost, "/transactions/create-transaction", "{not json", true)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	body := decode[models.TransactionResponse](t, rr)
	if body.Success || body.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation envelope, got %+v", body)
	}
}

func TestCreateTransaction_MapsErrorKindsToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "account not found", err: domain.NewAccountNotFound("SRC001"), status: http.StatusNotFound, code: "ACCOUNT_NOT_FOUND"},
		{name: "insufficient funds", err: domain.NewInsufficientFunds("a1", decimal.NewFromInt(5), decimal.NewFromInt(10)), status: http.StatusBadRequest, code: "INSUFFICIENT_FUNDS"},
		{name: "fraud detected", err: domain.NewFraudDetected("tx-1", []string{"High amount transaction (>10000)"}), status: http.StatusForbidden, code: "FRAUD_DETECTED"},
		{name: "transaction failed", err: domain.NewTransactionFailed("tx-1", "Inter-bank transfer was denied: closed", nil), status: http.StatusBadRequest, code: "TRANSACTION_FAILED"},
		{name: "conversion unavailable", err: domain.NewConversionUnavailable("USD", "JPY"), status: http.StatusBadRequest, code: "CURRENCY_CONVERSION_ERROR"},
		{name: "unauthorized", err: domain.NewUnauthorized("bad token"), status: http.StatusForbidden, code: "UNAUTHORIZED_OPERATION"},
		{name: "validation", err: domain.NewValidation("amount must be greater than zero"), status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "untyped", err: errors.New("db down"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := transactionServiceStub{settleFn: func(context.Context, models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
				return commons.ErrorResponse[models.TransactionResponse]("settlement failed"), tc.err
			}}
			router := newRouter(controller.NewTransactionController(svc))

			rr := do(t, router, http.MethodPost, "/transactions/create-transaction", transferBody(), true)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			body := decode[models.TransactionResponse](t, rr)
			if body.Success || body.Code != tc.code || body.UserMessage == "" {
				t.Fatalf("expected code %s with user message, got %+v", tc.code, body)
			}
		})
	}
}

func TestGetTransaction_PassesPathID(t *testing.T) {
	svc := transactionServiceStub{getTransactionFn: func(_ context.Context, id string) (commons.Response[models.TransactionResponse], error) {
		if id != "0b6f9b1e-3c39-4a43-9f0e-8f1c2a7d5e10" {
			return commons.Response[models.TransactionResponse]{}, domain.NewNotFound("Transaction " + id)
		}
		return commons.SuccessResponse("Transaction retrieved", models.TransactionResponse{ID: id}), nil
	}}
	router := newRouter(controller.NewTransactionController(svc))

	rr := do(t, router, http.MethodGet, "/transactions/0b6f9b1e-3c39-4a43-9f0e-8f1c2a7d5e10", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	rr = do(t, router, http.MethodGet, "/transactions/unknown", nil, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestCreateTransaction_ExposesTransactionIDOnFailure(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		reasons int
	}{
		{name: "held for review", err: domain.NewFraudDetected("tx-held", []string{"High amount transaction (>10000)"}), status: http.StatusForbidden, reasons: 1},
		{name: "denied by bank", err: domain.NewTransactionFailed("tx-held", "Inter-bank transfer was denied: closed", nil), status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := transactionServiceStub{settleFn: func(context.Context, models.CreateTransactionRequest) (commons.Response[models.TransactionResponse], error) {
				de, _ := domain.AsError(tc.err)
				return commons.CodedErrorResponse[models.TransactionResponse](de.Code(), de.Message, de.UserMessage), tc.err
			}}
			router := newRouter(controller.NewTransactionController(svc))

			rr := do(t, router, http.MethodPost, "/transactions/create-transaction", transferBody(), true)

			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rr.Code)
			}
			body := decode[models.TransactionResponse](t, rr)
			if body.TransactionID != "tx-held" {
				t.Fatalf("expected transaction id tx-held, got %+v", body)
			}
			if len(body.Errors) != tc.reasons {
				t.Fatalf("expected %d reasons, got %v", tc.reasons, body.Errors)
			}
		})
	}
}

func TestCreateTransaction_AcceptsBankToken(t *testing.T) {
	tokens := interbank.NewTokenIssuer("bank-token-secret", "settlement-hub", time.Hour)
	token, _, err := tokens.Issue("GTBINGLA", "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	svc := transactionServiceStub{getTransactionFn: func(_ context.Context, id string) (commons.Response[models.TransactionResponse], error) {
		return commons.SuccessResponse("Transaction retrieved", models.TransactionResponse{ID: id}), nil
	}}
	router := mux.NewRouter()
	controller.NewTransactionController(svc).RegisterRoutes(router,
		middleware.NewAuthenticator(channelID, channelKey, tokens).ChannelOrBank())

	req := httptest.NewRequest(http.MethodGet, "/transactions/tx-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/transactions/tx-1", nil)
	req.Header.Set("Authorization", "Bearer "+token+"x")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d for tampered token, got %d", http.StatusUnauthorized, rr.Code)
	}

	rr = do(t, router, http.MethodGet, "/transactions/tx-1", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected basic credentials to still work, got %d", rr.Code)
	}
}
