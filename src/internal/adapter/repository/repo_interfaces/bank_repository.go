package repo_interfaces

import (
	"context"

	"github.com/api-sage/settlement-hub/src/internal/domain"
)

type BankRepository interface {
	GetAll(ctx context.Context) ([]domain.Bank, error)
	GetByID(ctx context.Context, id string) (domain.Bank, error)
	GetBySwiftCode(ctx context.Context, swiftCode string) (domain.Bank, error)
}
