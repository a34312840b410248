package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type FraudCaseRepository struct {
	store *Store
}

func (r *FraudCaseRepository) FlagTransaction(_ context.Context, fraudCase domain.FraudCase) (domain.FraudCase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transaction, ok := r.store.transactions[fraudCase.TransactionID]
	if !ok || transaction.Status != domain.TransactionStatusPending {
		return domain.FraudCase{}, commons.ErrInvalidTransition
	}
	for _, existing := range r.store.fraudCases {
		if existing.TransactionID == fraudCase.TransactionID {
			return domain.FraudCase{}, fmt.Errorf("fraud case already exists for transaction %s", fraudCase.TransactionID)
		}
	}

	transaction.Status = domain.TransactionStatusFlaggedForFraud
	transaction.UpdatedAt = fraudCase.FlaggedAt
	r.store.transactions[transaction.ID] = transaction

	fraudCase.UpdatedAt = fraudCase.FlaggedAt
	r.store.fraudCases[fraudCase.ID] = fraudCase
	return fraudCase, nil
}

func (r *FraudCaseRepository) Get(_ context.Context, id string) (domain.FraudCase, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	fraudCase, ok := r.store.fraudCases[id]
	if !ok {
		return domain.FraudCase{}, commons.ErrRecordNotFound
	}
	return fraudCase, nil
}

func (r *FraudCaseRepository) Review(_ context.Context, id string, status domain.FraudCaseStatus, reviewer string, at time.Time) (domain.FraudCase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	fraudCase, ok := r.store.fraudCases[id]
	if !ok || fraudCase.Status != domain.FraudCaseStatusPending {
		return domain.FraudCase{}, commons.ErrInvalidTransition
	}
	fraudCase.Status = status
	fraudCase.ReviewedBy = &reviewer
	fraudCase.UpdatedAt = at
	r.store.fraudCases[id] = fraudCase
	return fraudCase, nil
}

func (r *FraudCaseRepository) ListByStatus(_ context.Context, status domain.FraudCaseStatus) ([]domain.FraudCase, error) {
	return r.list(func(c domain.FraudCase) bool { return c.Status == status }), nil
}

func (r *FraudCaseRepository) ListAll(_ context.Context) ([]domain.FraudCase, error) {
	return r.list(func(domain.FraudCase) bool { return true }), nil
}

func (r *FraudCaseRepository) list(keep func(domain.FraudCase) bool) []domain.FraudCase {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	cases := make([]domain.FraudCase, 0)
	for _, fraudCase := range r.store.fraudCases {
		if keep(fraudCase) {
			cases = append(cases, fraudCase)
		}
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].FlaggedAt.After(cases[j].FlaggedAt) })
	return cases
}
