package currency

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// RateSource provides exchange rates between two major-unit currencies.
type RateSource interface {
	GetRate(fromCurrency, toCurrency string) (float64, error)
}

// ExchangeService converts monetary amounts between currencies, handling the
// GBX minor-unit pseudo-currency before delegating to the rate source.
type ExchangeService struct {
	rates RateSource
	log   zerolog.Logger
}

// NewExchangeService creates a new exchange service
func NewExchangeService(rates RateSource, log zerolog.Logger) *ExchangeService {
	return &ExchangeService{
		rates: rates,
		log:   log.With().Str("service", "currency_exchange").Logger(),
	}
}

// Convert converts an amount between currencies. GBX amounts are rebased to
// GBP before rate lookup; same-currency conversion is the identity.
func (s *ExchangeService) Convert(amount float64, fromCurrency, toCurrency string) (float64, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))

	if from == "GBX" {
		amount /= 100.0
		from = "GBP"
	}
	if to == "GBX" {
		// Convert to GBP then rebase to pence at the end
		converted, err := s.Convert(amount, from, "GBP")
		if err != nil {
			return 0, err
		}
		return converted * 100.0, nil
	}

	if from == to || from == "" || to == "" {
		return amount, nil
	}

	if s.rates == nil {
		return 0, fmt.Errorf("no rate source configured for %s->%s", from, to)
	}

	rate, err := s.rates.GetRate(from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to get rate %s->%s: %w", from, to, err)
	}

	return amount * rate, nil
}
