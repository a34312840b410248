package memory

import (
	"context"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type RateRepository struct {
	store *Store
}

func (r *RateRepository) GetRates(_ context.Context) ([]domain.Rate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]domain.Rate(nil), r.store.rates...), nil
}
