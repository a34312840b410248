package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `
	t.id,
	t.from_account_id,
	t.to_account_id,
	t.from_bank_id,
	t.to_bank_id,
	t.amount,
	t.currency,
	t.status,
	t.message,
	t.failure_reason,
	t.initiated_at,
	t.completed_at,
	t.updated_at`

func (r *TransactionRepository) Create(ctx context.Context, transaction domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{
		"transactionId": transaction.ID,
		"fromAccountId": transaction.FromAccountID,
		"toAccountId":   transaction.ToAccountID,
		"status":        transaction.Status,
	})

	const query = `
INSERT INTO transactions (
	id,
	from_account_id,
	to_account_id,
	from_bank_id,
	to_bank_id,
	amount,
	currency,
	status,
	message,
	initiated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING updated_at`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		transaction.ID,
		transaction.FromAccountID,
		transaction.ToAccountID,
		transaction.FromBankID,
		transaction.ToBankID,
		transaction.Amount,
		transaction.Currency,
		transaction.Status,
		transaction.Message,
		transaction.InitiatedAt,
	).Scan(&transaction.UpdatedAt); err != nil {
		logger.Error("transaction repository create failed", err, logger.Fields{
			"transactionId": transaction.ID,
		})
		if isUniqueViolation(err) {
			return domain.Transaction{}, fmt.Errorf("create transaction: duplicate id: %w", err)
		}
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	logger.Info("transaction repository create success", logger.Fields{
		"transactionId": transaction.ID,
	})

	return transaction, nil
}

func (r *TransactionRepository) Get(ctx context.Context, id string) (domain.Transaction, error) {
	query := `SELECT` + transactionColumns + `
FROM transactions t
WHERE t.id = $1`

	var transaction domain.Transaction
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, id), &transaction); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, commons.ErrRecordNotFound
		}
		logger.Error("transaction repository get failed", err, logger.Fields{
			"transactionId": id,
		})
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}

	return transaction, nil
}

// PostTransfer locks both account rows in id order so that two transfers
// touching the same pair cannot deadlock, then applies a conditional debit,
// the credit and the status change inside one database transaction.
func (r *TransactionRepository) PostTransfer(ctx context.Context, posting domain.Posting) (err error) {
	logger.Info("transaction repository post transfer", logger.Fields{
		"transactionId": posting.TransactionID,
		"fromAccountId": posting.FromAccountID,
		"debitAmount":   posting.DebitAmount.StringFixed(2),
		"toAccountId":   posting.ToAccountID,
		"creditAmount":  posting.CreditAmount.StringFixed(2),
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("transaction repository begin tx failed", err, nil)
		return fmt.Errorf("begin posting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const lockQuery = `
SELECT id
FROM accounts
WHERE id = ANY($1::uuid[])
ORDER BY id
FOR UPDATE`
	rows, err := tx.QueryContext(ctx, lockQuery, pq.Array([]string{posting.FromAccountID, posting.ToAccountID}))
	if err != nil {
		return fmt.Errorf("lock accounts: %w", err)
	}
	locked := 0
	for rows.Next() {
		locked++
	}
	if err = rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("lock accounts: %w", err)
	}
	_ = rows.Close()
	if locked == 0 {
		err = commons.ErrRecordNotFound
		return err
	}

	const debitQuery = `
UPDATE accounts
SET balance = balance - $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND status = 'ACTIVE'
  AND balance >= $2::numeric`
	if _, err = execRequiredRows(ctx, tx, commons.ErrInsufficientBalance, debitQuery, posting.FromAccountID, posting.DebitAmount); err != nil {
		if isCheckViolation(err) {
			err = commons.ErrInsufficientBalance
		}
		return err
	}

	const creditQuery = `
UPDATE accounts
SET balance = balance + $2::numeric,
    updated_at = NOW()
WHERE id = $1
  AND status = 'ACTIVE'`
	if _, err = execRequiredRows(ctx, tx, commons.ErrRecordNotFound, creditQuery, posting.ToAccountID, posting.CreditAmount); err != nil {
		return err
	}

	const completeQuery = `
UPDATE transactions
SET status = 'COMPLETED',
    completed_at = $2,
    updated_at = NOW()
WHERE id = $1
  AND status IN ('PENDING', 'FLAGGED_FOR_FRAUD')`
	if _, err = execRequiredRows(ctx, tx, commons.ErrInvalidTransition, completeQuery, posting.TransactionID, posting.CompletedAt); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("transaction repository commit tx failed", err, nil)
		return fmt.Errorf("commit posting transaction: %w", err)
	}

	logger.Info("transaction repository post transfer success", logger.Fields{
		"transactionId": posting.TransactionID,
	})
	return nil
}

func (r *TransactionRepository) MarkFailed(ctx context.Context, id string, reason string, at time.Time) error {
	logger.Info("transaction repository mark failed", logger.Fields{
		"transactionId": id,
		"reason":        reason,
	})

	const query = `
UPDATE transactions
SET status = 'FAILED',
    failure_reason = $2,
    completed_at = $3,
    updated_at = NOW()
WHERE id = $1
  AND status IN ('PENDING', 'FLAGGED_FOR_FRAUD')`

	result, err := r.db.ExecContext(ctx, query, id, reason, at)
	if err != nil {
		logger.Error("transaction repository mark failed failed", err, logger.Fields{
			"transactionId": id,
		})
		return fmt.Errorf("mark transaction failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected: %w", err)
	}
	if rows == 0 {
		return commons.ErrInvalidTransition
	}
	return nil
}

func (r *TransactionRepository) ListResolvedHolds(ctx context.Context, since time.Time) ([]domain.ResolvedHold, error) {
	query := `SELECT` + transactionColumns + `,
	f.id,
	f.status,
	f.updated_at
FROM transactions t
JOIN fraud_cases f ON f.transaction_id = t.id
WHERE t.status = 'FLAGGED_FOR_FRAUD'
  AND f.status IN ('REVIEWED', 'DISMISSED')
  AND f.updated_at >= $1
ORDER BY f.updated_at ASC`

	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		logger.Error("transaction repository list resolved holds failed", err, nil)
		return nil, fmt.Errorf("list resolved holds: %w", err)
	}
	defer rows.Close()

	holds := make([]domain.ResolvedHold, 0)
	for rows.Next() {
		var (
			hold        domain.ResolvedHold
			failure     sql.NullString
			completedAt sql.NullTime
		)
		t := &hold.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.FromAccountID,
			&t.ToAccountID,
			&t.FromBankID,
			&t.ToBankID,
			&t.Amount,
			&t.Currency,
			&t.Status,
			&t.Message,
			&failure,
			&t.InitiatedAt,
			&completedAt,
			&t.UpdatedAt,
			&hold.CaseID,
			&hold.Decision,
			&hold.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan resolved hold: %w", err)
		}
		applyNullable(t, failure, completedAt)
		holds = append(holds, hold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolved holds: %w", err)
	}

	return holds, nil
}

func (r *TransactionRepository) AverageAmountSince(ctx context.Context, accountID string, since time.Time, excludeID string) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE(AVG(amount), 0)
FROM transactions
WHERE from_account_id = $1
  AND initiated_at >= $2
  AND id::text <> $3`

	var avg decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, accountID, since, excludeID).Scan(&avg); err != nil {
		return decimal.Zero, fmt.Errorf("average transaction amount: %w", err)
	}
	return avg, nil
}

func (r *TransactionRepository) CountOutgoingSince(ctx context.Context, accountID string, since time.Time, excludeID string) (int, error) {
	const query = `
SELECT COUNT(1)
FROM transactions
WHERE from_account_id = $1
  AND initiated_at >= $2
  AND id::text <> $3`

	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID, since, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count outgoing transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) SumOutgoingSince(ctx context.Context, accountID string, since time.Time, statuses []domain.TransactionStatus, excludeID string) (decimal.Decimal, error) {
	statusValues := make([]string, 0, len(statuses))
	for _, status := range statuses {
		statusValues = append(statusValues, string(status))
	}

	const query = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE from_account_id = $1
  AND initiated_at >= $2
  AND status = ANY($3)
  AND id::text <> $4`

	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, accountID, since, pq.Array(statusValues), excludeID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum outgoing transactions: %w", err)
	}
	return sum, nil
}

func (r *TransactionRepository) CountBetweenSince(ctx context.Context, fromAccountID string, toAccountID string, since time.Time, excludeID string) (int, error) {
	const query = `
SELECT COUNT(1)
FROM transactions
WHERE from_account_id = $1
  AND to_account_id = $2
  AND initiated_at >= $3
  AND id::text <> $4`

	var count int
	if err := r.db.QueryRowContext(ctx, query, fromAccountID, toAccountID, since, excludeID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions between accounts: %w", err)
	}
	return count, nil
}

func scanTransaction(row rowScanner, transaction *domain.Transaction) error {
	var (
		failure     sql.NullString
		completedAt sql.NullTime
	)
	if err := row.Scan(
		&transaction.ID,
		&transaction.FromAccountID,
		&transaction.ToAccountID,
		&transaction.FromBankID,
		&transaction.ToBankID,
		&transaction.Amount,
		&transaction.Currency,
		&transaction.Status,
		&transaction.Message,
		&failure,
		&transaction.InitiatedAt,
		&completedAt,
		&transaction.UpdatedAt,
	); err != nil {
		return err
	}
	applyNullable(transaction, failure, completedAt)
	return nil
}

func applyNullable(transaction *domain.Transaction, failure sql.NullString, completedAt sql.NullTime) {
	transaction.FailureReason = nil
	if failure.Valid {
		value := failure.String
		transaction.FailureReason = &value
	}
	transaction.CompletedAt = nil
	if completedAt.Valid {
		value := completedAt.Time
		transaction.CompletedAt = &value
	}
}
