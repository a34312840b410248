package memory

import (
	"sync"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

// Store keeps every entity behind a single mutex so that a posting reads and
// writes both balances and the transaction status as one step.
type Store struct {
	mu           sync.RWMutex
	banks        map[string]domain.Bank
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	fraudCases   map[string]domain.FraudCase
	rates        []domain.Rate
}

func NewStore() *Store {
	return &Store{
		banks:        make(map[string]domain.Bank),
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		fraudCases:   make(map[string]domain.FraudCase),
	}
}

func (s *Store) PutBank(bank domain.Bank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banks[bank.ID] = bank
}

func (s *Store) PutAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
}

func (s *Store) PutTransaction(transaction domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[transaction.ID] = transaction
}

func (s *Store) SetRates(rates []domain.Rate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rates = append([]domain.Rate(nil), rates...)
}

func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

func (s *Store) Banks() *BankRepository {
	return &BankRepository{store: s}
}

func (s *Store) Transactions() *TransactionRepository {
	return &TransactionRepository{store: s}
}

func (s *Store) FraudCases() *FraudCaseRepository {
	return &FraudCaseRepository{store: s}
}

func (s *Store) Rates() *RateRepository {
	return &RateRepository{store: s}
}
