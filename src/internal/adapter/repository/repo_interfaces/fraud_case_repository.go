package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type FraudCaseRepository interface {
	// FlagTransaction moves the transaction to FLAGGED_FOR_FRAUD and stores
	// the case in the same unit of work.
	FlagTransaction(ctx context.Context, fraudCase domain.FraudCase) (domain.FraudCase, error)
	Get(ctx context.Context, id string) (domain.FraudCase, error)
	// Review resolves a PENDING case. It returns commons.ErrInvalidTransition
	// when the case is no longer pending.
	Review(ctx context.Context, id string, status domain.FraudCaseStatus, reviewer string, at time.Time) (domain.FraudCase, error)
	ListByStatus(ctx context.Context, status domain.FraudCaseStatus) ([]domain.FraudCase, error)
	ListAll(ctx context.Context) ([]domain.FraudCase, error)
}
