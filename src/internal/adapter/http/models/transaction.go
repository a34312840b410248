package models

import (
	"strings"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateTransactionRequest struct {
	AccountNumber     string          `json:"accountNumber"`
	BankName          string          `json:"bankName"`
	ToAccountNumber   string          `json:"toAccountNumber"`
	ToBankName        string          `json:"toBankName"`
	AccountHolderName string          `json:"accountHolderName"`
	Currency          string          `json:"currency"`
	Amount            decimal.Decimal `json:"amount"`
	Message           string          `json:"message"`
}

// amountScale is the number of decimal places the ledger stores.
const amountScale = 2

func (r CreateTransactionRequest) Validate() error {
	var errs []string

	accountNumber := strings.TrimSpace(r.AccountNumber)
	bankName := strings.TrimSpace(r.BankName)
	toAccountNumber := strings.TrimSpace(r.ToAccountNumber)
	toBankName := strings.TrimSpace(r.ToBankName)

	if accountNumber == "" {
		errs = append(errs, "accountNumber is required")
	}
	if bankName == "" {
		errs = append(errs, "bankName is required")
	}
	if toAccountNumber == "" {
		errs = append(errs, "toAccountNumber is required")
	}
	if toBankName == "" {
		errs = append(errs, "toBankName is required")
	}
	if !isCurrencyCode(normalizeCurrency(r.Currency)) {
		errs = append(errs, "currency must be a 3 letter code")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	} else if !r.Amount.Equal(r.Amount.Round(amountScale)) {
		errs = append(errs, "amount must have at most 2 decimal places")
	}
	if accountNumber != "" && accountNumber == toAccountNumber && strings.EqualFold(bankName, toBankName) {
		errs = append(errs, "source and destination accounts cannot be the same")
	}

	return joinErrors(errs)
}

type TransactionResponse struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	FromBankID    string          `json:"fromBankId"`
	ToBankID      string          `json:"toBankId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	FailureReason *string         `json:"failureReason,omitempty"`
	InitiatedAt   string          `json:"initiatedAt"`
	CompletedAt   *string         `json:"completedAt,omitempty"`
}

func NewTransactionResponse(transaction domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:            transaction.ID,
		FromAccountID: transaction.FromAccountID,
		ToAccountID:   transaction.ToAccountID,
		FromBankID:    transaction.FromBankID,
		ToBankID:      transaction.ToBankID,
		Amount:        transaction.Amount,
		Currency:      transaction.Currency,
		Status:        string(transaction.Status),
		Message:       transaction.Message,
		FailureReason: transaction.FailureReason,
		InitiatedAt:   transaction.InitiatedAt.Format(time.RFC3339),
	}
	if transaction.CompletedAt != nil {
		completedAt := transaction.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completedAt
	}
	return resp
}
