package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error)
	Get(ctx context.Context, id string) (domain.Transaction, error)

	// PostTransfer debits, credits and completes the transaction as one unit.
	// It returns commons.ErrInsufficientBalance when the debit would overdraw
	// the source and commons.ErrInvalidTransition when the transaction is no
	// longer settleable.
	PostTransfer(ctx context.Context, posting domain.Posting) error
	MarkFailed(ctx context.Context, id string, reason string, at time.Time) error

	ListResolvedHolds(ctx context.Context, since time.Time) ([]domain.ResolvedHold, error)

	// History queries used by fraud screening. excludeID keeps the
	// transaction under evaluation out of its own history.
	AverageAmountSince(ctx context.Context, accountID string, since time.Time, excludeID string) (decimal.Decimal, error)
	CountOutgoingSince(ctx context.Context, accountID string, since time.Time, excludeID string) (int, error)
	SumOutgoingSince(ctx context.Context, accountID string, since time.Time, statuses []domain.TransactionStatus, excludeID string) (decimal.Decimal, error)
	CountBetweenSince(ctx context.Context, fromAccountID string, toAccountID string, since time.Time, excludeID string) (int, error)
}
