package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

type Account struct {
	ID            string
	AccountNumber string
	BankID        string
	HolderName    string
	AccountType   string
	Balance       decimal.Decimal
	Currency      string
	Status        AccountStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
