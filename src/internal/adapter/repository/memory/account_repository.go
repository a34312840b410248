package memory

import (
	"context"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return domain.Account{}, commons.ErrRecordNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetByNumberAndBankName(_ context.Context, accountNumber string, bankName string) (domain.Account, domain.Bank, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, account := range r.store.accounts {
		if account.AccountNumber != accountNumber {
			continue
		}
		bank, ok := r.store.banks[account.BankID]
		if ok && bank.Name == bankName {
			return account, bank, nil
		}
	}
	return domain.Account{}, domain.Bank{}, commons.ErrRecordNotFound
}
