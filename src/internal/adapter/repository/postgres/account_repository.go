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

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `
	a.id,
	a.account_number,
	a.bank_id,
	a.account_holder_name,
	a.account_type,
	a.balance,
	a.currency,
	a.status,
	a.created_at,
	a.updated_at`

func (r *AccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	query := `SELECT` + accountColumns + `
FROM accounts a
WHERE a.id = $1`

	var account domain.Account
	if err := scanAccount(r.db.QueryRowContext(ctx, query, id), &account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountId": id,
			})
			return domain.Account{}, commons.ErrRecordNotFound
		}
		logger.Error("account repository get by id failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.Account{}, fmt.Errorf("get account by id: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) GetByNumberAndBankName(ctx context.Context, accountNumber string, bankName string) (domain.Account, domain.Bank, error) {
	logger.Info("account repository get by number and bank", logger.Fields{
		"accountNumber": accountNumber,
		"bankName":      bankName,
	})

	query := `SELECT` + accountColumns + `,
	b.id,
	b.name,
	b.swift_code,
	b.base_api_endpoint,
	b.status
FROM accounts a
JOIN banks b ON b.id = a.bank_id
WHERE a.account_number = $1
  AND b.name = $2`

	var (
		account domain.Account
		bank    domain.Bank
	)
	if err := r.db.QueryRowContext(ctx, query, accountNumber, bankName).Scan(
		&account.ID,
		&account.AccountNumber,
		&account.BankID,
		&account.HolderName,
		&account.AccountType,
		&account.Balance,
		&account.Currency,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
		&bank.ID,
		&bank.Name,
		&bank.SwiftCode,
		&bank.APIEndpoint,
		&bank.Status,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("account repository record not found", logger.Fields{
				"accountNumber": accountNumber,
				"bankName":      bankName,
			})
			return domain.Account{}, domain.Bank{}, commons.ErrRecordNotFound
		}
		logger.Error("account repository get by number and bank failed", err, logger.Fields{
			"accountNumber": accountNumber,
		})
		return domain.Account{}, domain.Bank{}, fmt.Errorf("get account by number and bank: %w", err)
	}

	return account, bank, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, account *domain.Account) error {
	return row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.BankID,
		&account.HolderName,
		&account.AccountType,
		&account.Balance,
		&account.Currency,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
}
