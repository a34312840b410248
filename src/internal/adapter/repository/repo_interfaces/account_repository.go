package repo_interfaces

import (
	"context"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByNumberAndBankName(ctx context.Context, accountNumber string, bankName string) (domain.Account, domain.Bank, error)
}
