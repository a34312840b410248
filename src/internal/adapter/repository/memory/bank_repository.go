package memory

import (
	"context"
	"sort"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type BankRepository struct {
	store *Store
}

func (r *BankRepository) GetAll(_ context.Context) ([]domain.Bank, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	banks := make([]domain.Bank, 0, len(r.store.banks))
	for _, bank := range r.store.banks {
		banks = append(banks, bank)
	}
	sort.Slice(banks, func(i, j int) bool { return banks[i].Name < banks[j].Name })
	return banks, nil
}

func (r *BankRepository) GetByID(_ context.Context, id string) (domain.Bank, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	bank, ok := r.store.banks[id]
	if !ok {
		return domain.Bank{}, commons.ErrRecordNotFound
	}
	return bank, nil
}

func (r *BankRepository) GetBySwiftCode(_ context.Context, swiftCode string) (domain.Bank, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, bank := range r.store.banks {
		if bank.SwiftCode == swiftCode {
			return bank, nil
		}
	}
	return domain.Bank{}, commons.ErrRecordNotFound
}
