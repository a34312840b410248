package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
)

type BankRepository struct {
	db *sql.DB
}

func NewBankRepository(db *sql.DB) *BankRepository {
	return &BankRepository{db: db}
}

func (r *BankRepository) GetAll(ctx context.Context) ([]domain.Bank, error) {
	const query = `
SELECT id, name, swift_code, base_api_endpoint, status
FROM banks
ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("bank repository get all failed", err, nil)
		return nil, fmt.Errorf("get banks: %w", err)
	}
	defer rows.Close()

	banks := make([]domain.Bank, 0)
	for rows.Next() {
		var bank domain.Bank
		if err := scanBank(rows, &bank); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate banks: %w", err)
	}

	return banks, nil
}

func (r *BankRepository) GetByID(ctx context.Context, id string) (domain.Bank, error) {
	const query = `
SELECT id, name, swift_code, base_api_endpoint, status
FROM banks
WHERE id = $1`

	return r.getOne(ctx, query, id)
}

func (r *BankRepository) GetBySwiftCode(ctx context.Context, swiftCode string) (domain.Bank, error) {
	const query = `
SELECT id, name, swift_code, base_api_endpoint, status
FROM banks
WHERE swift_code = $1`

	return r.getOne(ctx, query, swiftCode)
}

func (r *BankRepository) getOne(ctx context.Context, query string, arg string) (domain.Bank, error) {
	var bank domain.Bank
	if err := scanBank(r.db.QueryRowContext(ctx, query, arg), &bank); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bank{}, commons.ErrRecordNotFound
		}
		logger.Error("bank repository get failed", err, logger.Fields{"lookup": arg})
		return domain.Bank{}, fmt.Errorf("get bank: %w", err)
	}
	return bank, nil
}

func scanBank(row rowScanner, bank *domain.Bank) error {
	return row.Scan(
		&bank.ID,
		&bank.Name,
		&bank.SwiftCode,
		&bank.APIEndpoint,
		&bank.Status,
	)
}
