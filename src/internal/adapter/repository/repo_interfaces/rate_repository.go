package repo_interfaces

import (
	"context"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type RateRepository interface {
	// GetRates returns the latest rate per currency pair.
	GetRates(ctx context.Context) ([]domain.Rate, error)
}
