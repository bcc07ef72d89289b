package currency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"shop-assistant/internal/domain"
	"shop-assistant/internal/integrations/exchangerates"
)

var (
	ErrMissingAPIKey   = errors.New("currency: exchange rate api key is not configured")
	ErrUnknownCurrency = errors.New("currency: currency code not in rate table")
)

// RateFetcher returns the latest global rate table for the given credential.
type RateFetcher interface {
	Latest(ctx context.Context, appID string) (exchangerates.Rates, error)
}

// Converter converts amounts through the rate service's base currency.
type Converter struct {
	rates  RateFetcher
	apiKey string
}

// NewConverter creates a Converter. An empty apiKey is accepted; every
// conversion then fails with ErrMissingAPIKey.
func NewConverter(rates RateFetcher, apiKey string) (*Converter, error) {
	if rates == nil {
		return nil, errors.New("currency: rate fetcher must not be nil")
	}
	return &Converter{rates: rates, apiKey: strings.TrimSpace(apiKey)}, nil
}

// Convert returns amount expressed in the target currency, formatted as
// "<value> <to>".
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (string, error) {
	res, err := c.Quote(ctx, amount, from, to)
	if err != nil {
		return "", err
	}
	return Format(res), nil
}

// Quote computes amount / rate[from] * rate[to] from a freshly fetched table.
func (c *Converter) Quote(ctx context.Context, amount float64, from, to string) (domain.ConversionResult, error) {
	if c.apiKey == "" {
		return domain.ConversionResult{}, ErrMissingAPIKey
	}
	from = normalizeCode(from)
	to = normalizeCode(to)

	table, err := c.rates.Latest(ctx, c.apiKey)
	if err != nil {
		return domain.ConversionResult{}, fmt.Errorf("currency: fetch rates: %w", err)
	}

	fromRate, err := lookup(table, from)
	if err != nil {
		return domain.ConversionResult{}, err
	}
	toRate, err := lookup(table, to)
	if err != nil {
		return domain.ConversionResult{}, err
	}

	value := amount
	if from != to {
		value = amount / fromRate * toRate
	}
	return domain.ConversionResult{Amount: value, Currency: to}, nil
}

// Format renders a conversion result as "<value> <currency>".
func Format(res domain.ConversionResult) string {
	return strconv.FormatFloat(res.Amount, 'f', -1, 64) + " " + res.Currency
}

func lookup(table exchangerates.Rates, code string) (float64, error) {
	rate, ok := table.Rates[code]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return rate, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
