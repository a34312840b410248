package memory

import (
	"time"

	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/shopspring/decimal"
)

// SeedDemo loads two participant banks, a handful of accounts and today's
// default rate table.
func (s *Store) SeedDemo(now time.Time) {
	banks := []domain.Bank{
		{ID: "b1000000-0000-0000-0000-000000000001", Name: "Test Bank", SwiftCode: "TESTUS33", APIEndpoint: "http://localhost:8081/api", Status: domain.BankStatusActive},
		{ID: "b1000000-0000-0000-0000-000000000002", Name: "Destination Bank", SwiftCode: "DESTUS33", APIEndpoint: "http://localhost:8082/api", Status: domain.BankStatusActive},
	}
	for _, bank := range banks {
		s.PutBank(bank)
	}

	accounts := []domain.Account{
		{ID: "a1000000-0000-0000-0000-000000000001", AccountNumber: "SRC001", BankID: banks[0].ID, HolderName: "John Doe", AccountType: "CHECKING", Balance: decimal.RequireFromString("500.00"), Currency: "USD"},
		{ID: "a1000000-0000-0000-0000-000000000002", AccountNumber: "DST001", BankID: banks[0].ID, HolderName: "Jane Smith", AccountType: "SAVINGS", Balance: decimal.Zero, Currency: "USD"},
		{ID: "a1000000-0000-0000-0000-000000000003", AccountNumber: "EUR001", BankID: banks[0].ID, HolderName: "Jane Smith", AccountType: "SAVINGS", Balance: decimal.RequireFromString("1000.00"), Currency: "EUR"},
		{ID: "a1000000-0000-0000-0000-000000000004", AccountNumber: "EXT001", BankID: banks[1].ID, HolderName: "Jane Smith", AccountType: "CHECKING", Balance: decimal.Zero, Currency: "USD"},
	}
	for _, account := range accounts {
		account.Status = domain.AccountStatusActive
		account.CreatedAt = now
		account.UpdatedAt = now
		s.PutAccount(account)
	}

	s.SetRates(DefaultRates(now))
}

// DefaultRates is the EUR/USD/GBP table used when no other source is loaded.
func DefaultRates(now time.Time) []domain.Rate {
	pairs := []struct {
		from, to, rate string
	}{
		{"EUR", "USD", "1.10"},
		{"EUR", "GBP", "0.85"},
		{"USD", "EUR", "0.91"},
		{"USD", "GBP", "0.77"},
		{"GBP", "EUR", "1.18"},
		{"GBP", "USD", "1.30"},
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	rates := make([]domain.Rate, 0, len(pairs))
	for i, pair := range pairs {
		rates = append(rates, domain.Rate{
			ID:           int64(i + 1),
			FromCurrency: pair.from,
			ToCurrency:   pair.to,
			Rate:         decimal.RequireFromString(pair.rate),
			RateDate:     day,
			CreatedAt:    now,
		})
	}
	return rates
}
