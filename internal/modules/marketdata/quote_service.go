package marketdata

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"notewatch/internal/clientdata"
)

// PriceClient fetches a current price for a full ticker from a market data
// provider. Returns nil, nil when the provider has no quote for the ticker.
type PriceClient interface {
	GetCurrentPrice(fullTicker string) (*CurrentQuote, error)
}

// QuoteService resolves current prices through the exchange-suffix variant
// list, with a persistent cache in front of the provider.
type QuoteService struct {
	client    PriceClient
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
}

// NewQuoteService creates a new quote service.
// cacheRepo is optional - if nil, caching is disabled.
func NewQuoteService(client PriceClient, cacheRepo *clientdata.Repository, log zerolog.Logger) *QuoteService {
	return &QuoteService{
		client:    client,
		cacheRepo: cacheRepo,
		log:       log.With().Str("service", "quotes").Logger(),
	}
}

// LookupCurrent tries the ticker's variant list in order and returns the
// first quote found. A full miss across all variants returns nil, nil - an
// unresolved price is an expected outcome, not an error.
func (s *QuoteService) LookupCurrent(ticker string) (*CurrentQuote, error) {
	for _, variant := range TickerVariants(ticker, LiveSuffixes) {
		quote := s.lookupVariant(variant)
		if quote != nil {
			return quote, nil
		}
	}

	s.log.Debug().Str("ticker", ticker).Msg("No current price found on any variant")
	return nil, nil
}

// lookupVariant resolves one full ticker, cache first. Provider failures are
// logged and treated as a miss for this variant only.
func (s *QuoteService) lookupVariant(fullTicker string) *CurrentQuote {
	if s.cacheRepo != nil {
		data, err := s.cacheRepo.GetIfFresh("current_prices", fullTicker)
		if err == nil && data != nil {
			var cached CurrentQuote
			if err := json.Unmarshal(data, &cached); err == nil {
				s.log.Debug().
					Str("full_ticker", fullTicker).
					Float64("price", cached.Price).
					Msg("Cache hit")
				return &cached
			}
		}
	}

	if s.client == nil {
		return nil
	}

	quote, err := s.client.GetCurrentPrice(fullTicker)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("full_ticker", fullTicker).
			Msg("Current price lookup failed, treating as miss")
		return nil
	}
	if quote == nil {
		return nil
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Store("current_prices", fullTicker, quote, clientdata.TTLCurrentPrice); err != nil {
			s.log.Warn().Err(err).Str("full_ticker", fullTicker).Msg("Failed to cache current price")
		}
	}

	return quote
}
