package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	store *Store
}

func (r *TransactionRepository) Create(_ context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.transactions[transaction.ID]; exists {
		return domain.Transaction{}, fmt.Errorf("create transaction: duplicate id %s", transaction.ID)
	}
	transaction.UpdatedAt = transaction.InitiatedAt
	r.store.transactions[transaction.ID] = transaction
	return transaction, nil
}

func (r *TransactionRepository) Get(_ context.Context, id string) (domain.Transaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	transaction, ok := r.store.transactions[id]
	if !ok {
		return domain.Transaction{}, commons.ErrRecordNotFound
	}
	return transaction, nil
}

func (r *TransactionRepository) PostTransfer(_ context.Context, posting domain.Posting) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transaction, ok := r.store.transactions[posting.TransactionID]
	if !ok {
		return commons.ErrRecordNotFound
	}
	if !transaction.Status.CanTransitionTo(domain.TransactionStatusCompleted) {
		return commons.ErrInvalidTransition
	}

	from, ok := r.store.accounts[posting.FromAccountID]
	if !ok || from.Status != domain.AccountStatusActive {
		return commons.ErrRecordNotFound
	}
	to, ok := r.store.accounts[posting.ToAccountID]
	if !ok || to.Status != domain.AccountStatusActive {
		return commons.ErrRecordNotFound
	}
	if from.Balance.LessThan(posting.DebitAmount) {
		return commons.ErrInsufficientBalance
	}

	from.Balance = from.Balance.Sub(posting.DebitAmount)
	from.UpdatedAt = posting.CompletedAt
	r.store.accounts[from.ID] = from

	// Re-read so a self transfer sees the debit.
	to = r.store.accounts[posting.ToAccountID]
	to.Balance = to.Balance.Add(posting.CreditAmount)
	to.UpdatedAt = posting.CompletedAt
	r.store.accounts[to.ID] = to

	completedAt := posting.CompletedAt
	transaction.Status = domain.TransactionStatusCompleted
	transaction.CompletedAt = &completedAt
	transaction.UpdatedAt = completedAt
	r.store.transactions[transaction.ID] = transaction
	return nil
}

func (r *TransactionRepository) MarkFailed(_ context.Context, id string, reason string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	transaction, ok := r.store.transactions[id]
	if !ok || !transaction.Status.CanTransitionTo(domain.TransactionStatusFailed) {
		return commons.ErrInvalidTransition
	}
	transaction.Status = domain.TransactionStatusFailed
	transaction.FailureReason = &reason
	transaction.CompletedAt = &at
	transaction.UpdatedAt = at
	r.store.transactions[id] = transaction
	return nil
}

func (r *TransactionRepository) ListResolvedHolds(_ context.Context, since time.Time) ([]domain.ResolvedHold, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	holds := make([]domain.ResolvedHold, 0)
	for _, fraudCase := range r.store.fraudCases {
		if fraudCase.Status == domain.FraudCaseStatusPending || fraudCase.UpdatedAt.Before(since) {
			continue
		}
		transaction, ok := r.store.transactions[fraudCase.TransactionID]
		if !ok || transaction.Status != domain.TransactionStatusFlaggedForFraud {
			continue
		}
		holds = append(holds, domain.ResolvedHold{
			Transaction: transaction,
			CaseID:      fraudCase.ID,
			Decision:    fraudCase.Status,
			ResolvedAt:  fraudCase.UpdatedAt,
		})
	}
	sort.Slice(holds, func(i, j int) bool { return holds[i].ResolvedAt.Before(holds[j].ResolvedAt) })
	return holds, nil
}

func (r *TransactionRepository) AverageAmountSince(_ context.Context, accountID string, since time.Time, excludeID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	count := 0
	r.eachOutgoing(accountID, since, excludeID, func(t domain.Transaction) {
		sum = sum.Add(t.Amount)
		count++
	})
	if count == 0 {
		return decimal.Zero, nil
	}
	return sum.Div(decimal.NewFromInt(int64(count))), nil
}

func (r *TransactionRepository) CountOutgoingSince(_ context.Context, accountID string, since time.Time, excludeID string) (int, error) {
	count := 0
	r.eachOutgoing(accountID, since, excludeID, func(domain.Transaction) { count++ })
	return count, nil
}

func (r *TransactionRepository) SumOutgoingSince(_ context.Context, accountID string, since time.Time, statuses []domain.TransactionStatus, excludeID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.eachOutgoing(accountID, since, excludeID, func(t domain.Transaction) {
		for _, status := range statuses {
			if t.Status == status {
				sum = sum.Add(t.Amount)
				return
			}
		}
	})
	return sum, nil
}

func (r *TransactionRepository) CountBetweenSince(_ context.Context, fromAccountID string, toAccountID string, since time.Time, excludeID string) (int, error) {
	count := 0
	r.eachOutgoing(fromAccountID, since, excludeID, func(t domain.Transaction) {
		if t.ToAccountID == toAccountID {
			count++
		}
	})
	return count, nil
}

func (r *TransactionRepository) eachOutgoing(accountID string, since time.Time, excludeID string, fn func(domain.Transaction)) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, transaction := range r.store.transactions {
		if transaction.FromAccountID != accountID || transaction.ID == excludeID {
			continue
		}
		if transaction.InitiatedAt.Before(since) {
			continue
		}
		fn(transaction)
	}
}
