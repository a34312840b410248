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
)

type FraudCaseRepository struct {
	db *sql.DB
}

func NewFraudCaseRepository(db *sql.DB) *FraudCaseRepository {
	return &FraudCaseRepository{db: db}
}

const fraudCaseColumns = `
	id,
	transaction_id,
	bank_id,
	reason,
	status,
	reviewed_by,
	flagged_at,
	updated_at`

func (r *FraudCaseRepository) FlagTransaction(ctx context.Context, fraudCase domain.FraudCase) (_ domain.FraudCase, err error) {
	logger.Info("fraud case repository flag transaction", logger.Fields{
		"transactionId": fraudCase.TransactionID,
		"reason":        fraudCase.Reason,
	})

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.FraudCase{}, fmt.Errorf("begin flag transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const holdQuery = `
UPDATE transactions
SET status = 'FLAGGED_FOR_FRAUD',
    updated_at = NOW()
WHERE id = $1
  AND status = 'PENDING'`
	if _, err = execRequiredRows(ctx, tx, commons.ErrInvalidTransition, holdQuery, fraudCase.TransactionID); err != nil {
		return domain.FraudCase{}, err
	}

	const insertQuery = `
INSERT INTO fraud_cases (
	id,
	transaction_id,
	bank_id,
	reason,
	status,
	flagged_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $6
)`
	if _, err = tx.ExecContext(
		ctx,
		insertQuery,
		fraudCase.ID,
		fraudCase.TransactionID,
		fraudCase.BankID,
		fraudCase.Reason,
		fraudCase.Status,
		fraudCase.FlaggedAt,
	); err != nil {
		if isUniqueViolation(err) {
			err = fmt.Errorf("fraud case already exists for transaction %s: %w", fraudCase.TransactionID, err)
			return domain.FraudCase{}, err
		}
		err = fmt.Errorf("insert fraud case: %w", err)
		return domain.FraudCase{}, err
	}

	if err = tx.Commit(); err != nil {
		logger.Error("fraud case repository commit failed", err, nil)
		return domain.FraudCase{}, fmt.Errorf("commit flag transaction: %w", err)
	}

	fraudCase.UpdatedAt = fraudCase.FlaggedAt
	logger.Info("fraud case repository flag transaction success", logger.Fields{
		"caseId":        fraudCase.ID,
		"transactionId": fraudCase.TransactionID,
	})
	return fraudCase, nil
}

func (r *FraudCaseRepository) Get(ctx context.Context, id string) (domain.FraudCase, error) {
	query := `SELECT` + fraudCaseColumns + `
FROM fraud_cases
WHERE id::text = $1`

	var fraudCase domain.FraudCase
	if err := scanFraudCase(r.db.QueryRowContext(ctx, query, id), &fraudCase); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FraudCase{}, commons.ErrRecordNotFound
		}
		return domain.FraudCase{}, fmt.Errorf("get fraud case: %w", err)
	}
	return fraudCase, nil
}

func (r *FraudCaseRepository) Review(ctx context.Context, id string, status domain.FraudCaseStatus, reviewer string, at time.Time) (domain.FraudCase, error) {
	logger.Info("fraud case repository review", logger.Fields{
		"caseId":   id,
		"status":   status,
		"reviewer": reviewer,
	})

	query := `
UPDATE fraud_cases
SET status = $2,
    reviewed_by = $3,
    updated_at = $4
WHERE id::text = $1
  AND status = 'PENDING'
RETURNING` + fraudCaseColumns

	var fraudCase domain.FraudCase
	if err := scanFraudCase(r.db.QueryRowContext(ctx, query, id, status, reviewer, at), &fraudCase); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FraudCase{}, commons.ErrInvalidTransition
		}
		logger.Error("fraud case repository review failed", err, logger.Fields{"caseId": id})
		return domain.FraudCase{}, fmt.Errorf("review fraud case: %w", err)
	}

	return fraudCase, nil
}

func (r *FraudCaseRepository) ListByStatus(ctx context.Context, status domain.FraudCaseStatus) ([]domain.FraudCase, error) {
	query := `SELECT` + fraudCaseColumns + `
FROM fraud_cases
WHERE status = $1
ORDER BY flagged_at DESC`

	return r.list(ctx, query, status)
}

func (r *FraudCaseRepository) ListAll(ctx context.Context) ([]domain.FraudCase, error) {
	query := `SELECT` + fraudCaseColumns + `
FROM fraud_cases
ORDER BY flagged_at DESC`

	return r.list(ctx, query)
}

func (r *FraudCaseRepository) list(ctx context.Context, query string, args ...any) ([]domain.FraudCase, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("fraud case repository list failed", err, nil)
		return nil, fmt.Errorf("list fraud cases: %w", err)
	}
	defer rows.Close()

	cases := make([]domain.FraudCase, 0)
	for rows.Next() {
		var fraudCase domain.FraudCase
		if err := scanFraudCase(rows, &fraudCase); err != nil {
			return nil, fmt.Errorf("scan fraud case: %w", err)
		}
		cases = append(cases, fraudCase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud cases: %w", err)
	}
	return cases, nil
}

func scanFraudCase(row rowScanner, fraudCase *domain.FraudCase) error {
	var reviewedBy sql.NullString
	if err := row.Scan(
		&fraudCase.ID,
		&fraudCase.TransactionID,
		&fraudCase.BankID,
		&fraudCase.Reason,
		&fraudCase.Status,
		&reviewedBy,
		&fraudCase.FlaggedAt,
		&fraudCase.UpdatedAt,
	); err != nil {
		return err
	}
	fraudCase.ReviewedBy = nil
	if reviewedBy.Valid {
		value := reviewedBy.String
		fraudCase.ReviewedBy = &value
	}
	return nil
}
