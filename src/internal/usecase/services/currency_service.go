package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/api-sage/settlement-hub/src/internal/adapter/http/models"
	"github.com/api-sage/settlement-hub/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/settlement-hub/src/internal/audit"
	"github.com/api-sage/settlement-hub/src/internal/commons"
	"github.com/api-sage/settlement-hub/src/internal/config"
	"github.com/api-sage/settlement-hub/src/internal/domain"
	"github.com/api-sage/settlement-hub/src/internal/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	RateSourceDatabase = "database"
	RateSourceFallback = "fallback"

	rateScale  = 6
	moneyScale = 2
)

var fallbackRates = []struct {
	from, to, rate string
}{
	{"EUR", "USD", "1.10"},
	{"EUR", "GBP", "0.85"},
	{"USD", "EUR", "0.91"},
	{"USD", "GBP", "0.77"},
	{"GBP", "EUR", "1.18"},
	{"GBP", "USD", "1.30"},
}

type currencyPair struct {
	from string
	to   string
}

// rateTable is published whole and never mutated after that.
type rateTable struct {
	rates     map[currencyPair]decimal.Decimal
	updatedAt time.Time
	day       string
	source    string
}

type RateQuote struct {
	From string
	To   string
	Rate decimal.Decimal
}

type RateSnapshot struct {
	Rates     []RateQuote
	UpdatedAt time.Time
	Source    string
	Stale     bool
}

// CurrencyService converts amounts with the latest published rate table.
// The table is refreshed daily, lazily on the first use of a new day, on
// demand, and after MarkStale.
type CurrencyService struct {
	rateRepo    repo_interfaces.RateRepository
	base        string
	refreshHour int
	loc         *time.Location
	opts        options

	table atomic.Pointer[rateTable]
	stale atomic.Bool
	group singleflight.Group
}

func NewCurrencyService(rateRepo repo_interfaces.RateRepository, cfg config.CurrencyConfig, opts ...Option) *CurrencyService {
	loc, err := cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	base := strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency))
	if base == "" {
		base = "EUR"
	}
	return &CurrencyService{
		rateRepo:    rateRepo,
		base:        base,
		refreshHour: cfg.RefreshHour,
		loc:         loc,
		opts:        buildOptions(opts),
	}
}

// Rate returns the multiplier that turns an amount in from into to.
func (s *CurrencyService) Rate(ctx context.Context, from string, to string) (decimal.Decimal, error) {
	from, to = normalizeCode(from), normalizeCode(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	table := s.current(ctx)
	if rate, ok := table.lookup(from, to); ok {
		return rate, nil
	}
	if from != s.base && to != s.base {
		first, ok1 := table.lookup(from, s.base)
		second, ok2 := table.lookup(s.base, to)
		if ok1 && ok2 {
			return first.Mul(second).Round(rateScale), nil
		}
	}
	return decimal.Zero, domain.NewConversionUnavailable(from, to)
}

// Convert applies the direct pair, then the inverse pair, then a two leg
// conversion through the base currency. Results are rounded half up to
// two decimals.
func (s *CurrencyService) Convert(ctx context.Context, amount decimal.Decimal, from string, to string) (decimal.Decimal, error) {
	from, to = normalizeCode(from), normalizeCode(to)
	if from == to {
		return amount, nil
	}

	table := s.current(ctx)
	if rate, ok := table.rates[currencyPair{from, to}]; ok {
		return amount.Mul(rate).Round(moneyScale), nil
	}
	if inverse, ok := table.rates[currencyPair{to, from}]; ok && !inverse.IsZero() {
		return amount.DivRound(inverse, rateScale).Round(moneyScale), nil
	}
	if from != s.base && to != s.base {
		mid, err := s.Convert(ctx, amount, from, s.base)
		if err != nil {
			return decimal.Zero, domain.NewConversionUnavailable(from, to)
		}
		converted, err := s.Convert(ctx, mid, s.base, to)
		if err != nil {
			return decimal.Zero, domain.NewConversionUnavailable(from, to)
		}
		return converted, nil
	}
	return decimal.Zero, domain.NewConversionUnavailable(from, to)
}

// MarkStale makes the next use reload the table.
func (s *CurrencyService) MarkStale() {
	s.stale.Store(true)
}

func (s *CurrencyService) Snapshot(ctx context.Context) RateSnapshot {
	table := s.current(ctx)

	quotes := make([]RateQuote, 0, len(table.rates))
	for pair, rate := range table.rates {
		quotes = append(quotes, RateQuote{From: pair.from, To: pair.to, Rate: rate})
	}
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].From != quotes[j].From {
			return quotes[i].From < quotes[j].From
		}
		return quotes[i].To < quotes[j].To
	})

	return RateSnapshot{
		Rates:     quotes,
		UpdatedAt: table.updatedAt,
		Source:    table.source,
		Stale:     s.stale.Load(),
	}
}

// Refresh reloads the table from the rate repository. When the repository
// fails the previous table stays published, or the fallback table when
// there is none, and the error is returned.
func (s *CurrencyService) Refresh(ctx context.Context) (RateSnapshot, error) {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return s.Snapshot(ctx), err
}

// Run refreshes the table every day at the configured hour until ctx ends.
func (s *CurrencyService) Run(ctx context.Context) error {
	logger.Info("currency service daily refresh started", logger.Fields{
		"refreshHour": s.refreshHour,
		"timezone":    s.loc.String(),
	})

	for {
		wait := s.untilNextRefresh(s.opts.now())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("currency service daily refresh stopped", nil)
			return nil
		case <-timer.C:
			if _, err := s.Refresh(ctx); err != nil {
				logger.Error("currency service daily refresh failed", err, nil)
			}
		}
	}
}

func (s *CurrencyService) untilNextRefresh(now time.Time) time.Duration {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.refreshHour, 0, 0, 0, s.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(local)
}

func (s *CurrencyService) current(ctx context.Context) *rateTable {
	table := s.table.Load()
	if table != nil && !s.stale.Load() && table.day == s.today() {
		return table
	}

	_, _, _ = s.group.Do("refresh", func() (any, error) {
		return nil, s.refresh(ctx)
	})
	return s.table.Load()
}

func (s *CurrencyService) refresh(ctx context.Context) error {
	s.stale.Store(false)
	now := s.opts.now()

	rates, err := s.rateRepo.GetRates(ctx)
	if err == nil && len(rates) == 0 {
		err = errors.New("rate repository returned no rates")
	}
	if err != nil {
		logger.Error("currency service refresh failed", err, nil)
		previous := s.table.Load()
		if previous == nil {
			s.table.Store(s.fallbackTable(now))
			s.opts.metrics.RecordCurrencyRefresh(RateSourceFallback)
			logger.Warn("currency service using fallback rates", nil)
			return err
		}
		// Keep serving the last table; retry on the next day or explicit refresh.
		retained := *previous
		retained.day = s.dayOf(now)
		s.table.Store(&retained)
		s.opts.metrics.RecordCurrencyRefresh("failed")
		return err
	}

	table := &rateTable{
		rates:     make(map[currencyPair]decimal.Decimal, len(rates)),
		updatedAt: now,
		day:       s.dayOf(now),
		source:    RateSourceDatabase,
	}
	for _, rate := range rates {
		if rate.Rate.LessThanOrEqual(decimal.Zero) {
			continue
		}
		table.rates[currencyPair{normalizeCode(rate.FromCurrency), normalizeCode(rate.ToCurrency)}] = rate.Rate
	}
	s.table.Store(table)
	s.opts.metrics.RecordCurrencyRefresh("success")

	logger.Info("currency service refresh success", logger.Fields{
		"count": len(table.rates),
		"day":   table.day,
	})
	return nil
}

func (s *CurrencyService) fallbackTable(now time.Time) *rateTable {
	table := &rateTable{
		rates:     make(map[currencyPair]decimal.Decimal, len(fallbackRates)),
		updatedAt: now,
		day:       s.dayOf(now),
		source:    RateSourceFallback,
	}
	for _, entry := range fallbackRates {
		table.rates[currencyPair{entry.from, entry.to}] = decimal.RequireFromString(entry.rate)
	}
	return table
}

func (s *CurrencyService) today() string {
	return s.dayOf(s.opts.now())
}

func (s *CurrencyService) dayOf(t time.Time) string {
	return t.In(s.loc).Format("2006-01-02")
}

func (t *rateTable) lookup(from string, to string) (decimal.Decimal, bool) {
	if rate, ok := t.rates[currencyPair{from, to}]; ok {
		return rate, true
	}
	if inverse, ok := t.rates[currencyPair{to, from}]; ok && !inverse.IsZero() {
		return decimal.NewFromInt(1).DivRound(inverse, rateScale), true
	}
	return decimal.Zero, false
}

func (t *rateTable) currencies() []string {
	seen := make(map[string]struct{})
	for pair := range t.rates {
		seen[pair.from] = struct{}{}
		seen[pair.to] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *CurrencyService) GetRate(ctx context.Context, req models.GetRateRequest) (commons.Response[models.RateResponse], error) {
	logger.Info("currency service get rate request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.RateResponse]("validation failed", err.Error()), domain.NewValidation(err.Error())
	}

	rate, err := s.Rate(ctx, req.From, req.To)
	if err != nil {
		logger.Error("currency service get rate failed", err, logger.Fields{
			"from": req.From,
			"to":   req.To,
		})
		return commons.ErrorResponse[models.RateResponse]("Rate not found for currency pair", err.Error()), err
	}

	return commons.SuccessResponse("rate fetched successfully", models.RateResponse{
		From:        normalizeCode(req.From),
		To:          normalizeCode(req.To),
		Rate:        rate,
		LastUpdated: s.lastUpdated(ctx),
	}), nil
}

func (s *CurrencyService) ConvertAmount(ctx context.Context, req models.ConvertRequest) (commons.Response[models.ConvertResponse], error) {
	logger.Info("currency service convert request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.ConvertResponse]("validation failed", err.Error()), domain.NewValidation(err.Error())
	}

	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount))
	converted, err := s.Convert(ctx, amount, req.From, req.To)
	if err != nil {
		logger.Error("currency service convert failed", err, nil)
		return commons.ErrorResponse[models.ConvertResponse]("Currency conversion failed", err.Error()), err
	}
	rate, err := s.Rate(ctx, req.From, req.To)
	if err != nil {
		return commons.ErrorResponse[models.ConvertResponse]("Currency conversion failed", err.Error()), err
	}

	logger.Info("currency service convert success", logger.Fields{
		"from":            req.From,
		"to":              req.To,
		"convertedAmount": converted.StringFixed(2),
	})

	return commons.SuccessResponse("amount converted successfully", models.ConvertResponse{
		OriginalAmount:  amount,
		FromCurrency:    normalizeCode(req.From),
		ConvertedAmount: converted,
		ToCurrency:      normalizeCode(req.To),
		ExchangeRate:    rate,
		LastUpdated:     s.lastUpdated(ctx),
	}), nil
}

func (s *CurrencyService) GetRates(ctx context.Context) (commons.Response[models.RatesSnapshotResponse], error) {
	snapshot := s.Snapshot(ctx)

	entries := make([]models.RateEntry, 0, len(snapshot.Rates))
	for _, quote := range snapshot.Rates {
		entries = append(entries, models.RateEntry{From: quote.From, To: quote.To, Rate: quote.Rate})
	}

	return commons.SuccessResponse("rates fetched successfully", models.RatesSnapshotResponse{
		Rates:               entries,
		LastUpdated:         snapshot.UpdatedAt.In(s.loc).Format("2006-01-02"),
		Source:              snapshot.Source,
		Stale:               snapshot.Stale,
		SupportedCurrencies: s.table.Load().currencies(),
	}), nil
}

func (s *CurrencyService) RefreshRates(ctx context.Context) (commons.Response[models.RefreshRatesResponse], error) {
	logger.Info("currency service refresh rates request", nil)

	snapshot, err := s.Refresh(ctx)
	if err != nil {
		return commons.ErrorResponse[models.RefreshRatesResponse]("Failed to refresh exchange rates", err.Error()), err
	}

	s.opts.audit.Record(ctx, audit.ActionRatesRefreshed, map[string]any{"count": len(snapshot.Rates)})
	return commons.SuccessResponse("Exchange rates refreshed successfully", models.RefreshRatesResponse{
		LastUpdated: snapshot.UpdatedAt.In(s.loc).Format("2006-01-02"),
		Source:      snapshot.Source,
		Count:       len(snapshot.Rates),
	}), nil
}

func (s *CurrencyService) lastUpdated(ctx context.Context) string {
	return s.current(ctx).updatedAt.In(s.loc).Format("2006-01-02")
}
