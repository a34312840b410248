package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/memory"
	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	sourceAccountID      = "a1000000-0000-0000-0000-000000000001"
	destinationAccountID = "a1000000-0000-0000-0000-000000000002"
	euroAccountID        = "a1000000-0000-0000-0000-000000000003"
	externalAccountID    = "a1000000-0000-0000-0000-000000000004"
	testBankID           = "b1000000-0000-0000-0000-000000000001"
	destinationBankID    = "b1000000-0000-0000-0000-000000000002"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(now time.Time) *clock {
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// afternoon keeps scenarios clear of the off-hours rule.
func afternoon() time.Time {
	return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
}

type rateRepoStub struct {
	getRatesFn func(ctx context.Context) ([]domain.Rate, error)
}

func (s rateRepoStub) GetRates(ctx context.Context) ([]domain.Rate, error) {
	if s.getRatesFn != nil {
		return s.getRatesFn(ctx)
	}
	return nil, nil
}

type auditEntry struct {
	action  string
	details map[string]any
}

type auditRecorderStub struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (s *auditRecorderStub) Record(_ context.Context, action string, details map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, auditEntry{action: action, details: details})
}

func (s *auditRecorderStub) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry.action)
	}
	return out
}

func defaultFraudConfig() config.FraudConfig {
	return config.FraudConfig{
		HighAmountThreshold:    decimal.NewFromInt(10000),
		UnusualAmountThreshold: decimal.NewFromInt(5000),
		DailyAmountLimit:       decimal.NewFromInt(50000),
		UnusualMultiplier:      5,
		AverageLookbackDays:    30,
		MaxPerHour:             10,
		MaxPerDay:              50,
		SelfTransferPerHour:    3,
		OffHoursStart:          23,
		OffHoursEnd:            6,
		Timezone:               "UTC",
	}
}

func defaultCurrencyConfig() config.CurrencyConfig {
	return config.CurrencyConfig{BaseCurrency: "EUR", RefreshHour: 9, Timezone: "UTC"}
}

func seededStore(t *testing.T, now time.Time) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	store.SeedDemo(now)
	return store
}

func setBalance(t *testing.T, store *memory.Store, accountID string, balance string) {
	t.Helper()
	account, err := store.Accounts().GetByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account %s: %v", accountID, err)
	}
	account.Balance = decimal.RequireFromString(balance)
	store.PutAccount(account)
}

func balanceOf(t *testing.T, store *memory.Store, accountID string) decimal.Decimal {
	t.Helper()
	account, err := store.Accounts().GetByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get account %s: %v", accountID, err)
	}
	return account.Balance
}

func mustDecimal(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}
