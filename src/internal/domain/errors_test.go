package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/shopspring/decimal"
)

func TestKindOfUnwrapsChain(t *testing.T) {
	base := domain.NewInsufficientFunds("acc-1", decimal.NewFromInt(50), decimal.NewFromInt(100))
	wrapped := fmt.Errorf("settle: %w", base)

	if got := domain.KindOf(wrapped); got != domain.KindInsufficientFunds {
		t.Fatalf("expected insufficient funds kind, got %v", got)
	}
	if domain.KindOf(errors.New("plain")) != domain.KindInternal {
		t.Fatal("expected plain errors to classify as internal")
	}

	de, ok := domain.AsError(wrapped)
	if !ok {
		t.Fatal("expected domain error in chain")
	}
	if !de.Balance.Equal(decimal.NewFromInt(50)) || !de.Requested.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance and requested amounts to be carried, got %s and %s", de.Balance, de.Requested)
	}
	if de.Code() != "INSUFFICIENT_FUNDS" {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %s", de.Code())
	}
}

func TestFraudDetectedCarriesReasons(t *testing.T) {
	err := domain.NewFraudDetected("tx-1", []string{"High amount transaction (>10000)", "Transaction initiated during off-hours"})

	if err.Message != "Fraudulent transaction detected: High amount transaction (>10000); Transaction initiated during off-hours" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if len(err.Reasons) != 2 || err.TransactionID != "tx-1" {
		t.Fatalf("unexpected fraud error payload: %+v", err)
	}
}

func TestTransactionStatusTransitions(t *testing.T) {
	cases := []struct {
		from domain.TransactionStatus
		to   domain.TransactionStatus
		ok   bool
	}{
		{domain.TransactionStatusPending, domain.TransactionStatusCompleted, true},
		{domain.TransactionStatusPending, domain.TransactionStatusFlaggedForFraud, true},
		{domain.TransactionStatusFlaggedForFraud, domain.TransactionStatusCompleted, true},
		{domain.TransactionStatusFlaggedForFraud, domain.TransactionStatusPending, false},
		{domain.TransactionStatusCompleted, domain.TransactionStatusFailed, false},
		{domain.TransactionStatusFailed, domain.TransactionStatusCompleted, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.ok {
				t.Fatalf("expected %v, got %v", tc.ok, got)
			}
		})
	}
}
