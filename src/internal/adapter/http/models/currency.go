package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type GetRateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (r GetRateRequest) Validate() error {
	var errs []string

	if !isCurrencyCode(normalizeCurrency(r.From)) {
		errs = append(errs, "from must be a 3 letter currency code")
	}
	if !isCurrencyCode(normalizeCurrency(r.To)) {
		errs = append(errs, "to must be a 3 letter currency code")
	}

	return joinErrors(errs)
}

type RateResponse struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Rate        decimal.Decimal `json:"rate"`
	LastUpdated string          `json:"lastUpdated"`
}

type ConvertRequest struct {
	Amount string `json:"amount"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (r ConvertRequest) Validate() error {
	var errs []string

	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		errs = append(errs, "amount must be a valid decimal")
	} else if amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if !isCurrencyCode(normalizeCurrency(r.From)) {
		errs = append(errs, "from must be a 3 letter currency code")
	}
	if !isCurrencyCode(normalizeCurrency(r.To)) {
		errs = append(errs, "to must be a 3 letter currency code")
	}

	return joinErrors(errs)
}

type ConvertResponse struct {
	OriginalAmount  decimal.Decimal `json:"originalAmount"`
	FromCurrency    string          `json:"fromCurrency"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	ToCurrency      string          `json:"toCurrency"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate"`
	LastUpdated     string          `json:"lastUpdated"`
}

type RateEntry struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

type RatesSnapshotResponse struct {
	Rates               []RateEntry `json:"rates"`
	LastUpdated         string      `json:"lastUpdated"`
	Source              string      `json:"source"`
	Stale               bool        `json:"stale"`
	SupportedCurrencies []string    `json:"supportedCurrencies"`
}

type RefreshRatesResponse struct {
	LastUpdated string `json:"lastUpdated"`
	Source      string `json:"source"`
	Count       int    `json:"count"`
}
