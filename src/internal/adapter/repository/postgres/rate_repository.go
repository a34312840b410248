package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
)

type RateRepository struct {
	db *sql.DB
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

func (r *RateRepository) EnsureDefaultRates(ctx context.Context) error {
	logger.Info("rate repository ensure default rates", nil)

	const query = `
INSERT INTO rates (
	from_currency,
	to_currency,
	rate,
	rate_date
) VALUES
	('EUR', 'USD', 1.10000000, CURRENT_DATE),
	('EUR', 'GBP', 0.85000000, CURRENT_DATE),
	('USD', 'EUR', 0.91000000, CURRENT_DATE),
	('USD', 'GBP', 0.77000000, CURRENT_DATE),
	('GBP', 'EUR', 1.18000000, CURRENT_DATE),
	('GBP', 'USD', 1.30000000, CURRENT_DATE)
ON CONFLICT (from_currency, to_currency, rate_date) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		logger.Error("rate repository ensure default rates failed", err, nil)
		return fmt.Errorf("ensure default rates: %w", err)
	}

	logger.Info("rate repository ensure default rates success", nil)
	return nil
}

func (r *RateRepository) GetRates(ctx context.Context) ([]domain.Rate, error) {
	logger.Info("rate repository get rates", nil)

	const query = `
SELECT DISTINCT ON (from_currency, to_currency)
	id, from_currency, to_currency, rate, rate_date, created_at
FROM rates
ORDER BY from_currency ASC, to_currency ASC, rate_date DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("rate repository get rates failed", err, nil)
		return nil, fmt.Errorf("get rates: %w", err)
	}
	defer rows.Close()

	rates := make([]domain.Rate, 0)
	for rows.Next() {
		var rate domain.Rate
		if err := rows.Scan(
			&rate.ID,
			&rate.FromCurrency,
			&rate.ToCurrency,
			&rate.Rate,
			&rate.RateDate,
			&rate.CreatedAt,
		); err != nil {
			logger.Error("rate repository scan rate failed", err, nil)
			return nil, fmt.Errorf("scan rate: %w", err)
		}

		rates = append(rates, rate)
	}

	if err := rows.Err(); err != nil {
		logger.Error("rate repository iterate rates failed", err, nil)
		return nil, fmt.Errorf("iterate rates: %w", err)
	}

	logger.Info("rate repository get rates success", logger.Fields{
		"count": len(rates),
	})

	return rates, nil
}
