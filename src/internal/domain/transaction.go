package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending         TransactionStatus = "PENDING"
	TransactionStatusCompleted       TransactionStatus = "COMPLETED"
	TransactionStatusFailed          TransactionStatus = "FAILED"
	TransactionStatusCancelled       TransactionStatus = "CANCELLED"
	TransactionStatusFlaggedForFraud TransactionStatus = "FLAGGED_FOR_FRAUD"
)

// CanTransitionTo reports whether a move from s to next keeps the status
// moving forward.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return next == TransactionStatusCompleted ||
			next == TransactionStatusFailed ||
			next == TransactionStatusFlaggedForFraud
	case TransactionStatusFlaggedForFraud:
		return next == TransactionStatusCompleted || next == TransactionStatusFailed
	default:
		return false
	}
}

type Transaction struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	FromBankID    string
	ToBankID      string
	Amount        decimal.Decimal
	Currency      string
	Status        TransactionStatus
	Message       string
	FailureReason *string
	InitiatedAt   time.Time
	CompletedAt   *time.Time
	UpdatedAt     time.Time
}

func (t Transaction) IsSameBank() bool {
	return t.FromBankID == t.ToBankID
}

// Posting is the balance movement that settles a transaction. Debit and
// credit are expressed in the currency of their own account.
type Posting struct {
	TransactionID string
	FromAccountID string
	DebitAmount   decimal.Decimal
	ToAccountID   string
	CreditAmount  decimal.Decimal
	CompletedAt   time.Time
}

// ResolvedHold is a held transaction whose fraud case has been decided.
type ResolvedHold struct {
	Transaction Transaction
	CaseID      string
	Decision    FraudCaseStatus
	ResolvedAt  time.Time
}
