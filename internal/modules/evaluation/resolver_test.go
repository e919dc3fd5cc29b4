package evaluation

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewatch/internal/domain"
	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

func newTestResolver(history HistorySource, quotes QuoteSource) *Resolver {
	return NewResolver(history, quotes, nil, zerolog.Nop())
}

func TestResolveTradeDatePriceFromCache(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}
	history := &fakeHistory{onDate: map[string]*marketdata.HistoricalPriceRecord{
		"AAPL|2023-01-10": {Date: "2023-01-10", Close: 98.5},
	}}

	resolved := newTestResolver(history, nil).Resolve(u, p, Lifecycle{}, mustDate("2025-06-01"), false)

	require.NotNil(t, resolved.TradeDate)
	assert.Equal(t, 98.5, resolved.TradeDate.Price)
	assert.Equal(t, domain.SourceMarketDataCache, resolved.TradeDate.Source)
}

func TestResolveTradeDatePriceFallsBackToStrike(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}

	resolved := newTestResolver(&fakeHistory{}, nil).Resolve(u, p, Lifecycle{}, mustDate("2025-06-01"), false)

	require.NotNil(t, resolved.TradeDate)
	assert.Equal(t, 100.0, resolved.TradeDate.Price)
	assert.Equal(t, domain.SourceStrikeFallback, resolved.TradeDate.Source)
}

func TestResolveInitialConventions(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}
	history := &fakeHistory{onDate: map[string]*marketdata.HistoricalPriceRecord{
		"AAPL|2023-01-10": {Date: "2023-01-10", Close: 98.5},
	}}

	// Barrier notes measure against the contractual strike
	resolved := newTestResolver(history, nil).Resolve(u, p, Lifecycle{}, mustDate("2025-06-01"), false)
	assert.Equal(t, 100.0, resolved.Initial.Price)
	assert.Equal(t, domain.SourceStrikeFallback, resolved.Initial.Source)

	// Participation notes measure against the trade-date market price
	resolved = newTestResolver(history, nil).Resolve(u, p, Lifecycle{}, mustDate("2025-06-01"), true)
	assert.Equal(t, 98.5, resolved.Initial.Price)
	assert.Equal(t, domain.SourceMarketDataCache, resolved.Initial.Source)
}

func TestResolveRedemptionPriceFromCache(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}
	history := &fakeHistory{onDate: map[string]*marketdata.HistoricalPriceRecord{
		"AAPL|2025-01-10": {Date: "2025-01-10", Close: 123},
	}}
	lc := Lifecycle{
		MaturityPassed: true,
		RedemptionDate: datePtr("2025-01-10"),
		RedemptionKind: domain.RedemptionMaturity,
	}

	resolved := newTestResolver(history, nil).Resolve(u, p, lc, mustDate("2025-06-01"), false)

	require.NotNil(t, resolved.Redemption)
	assert.Equal(t, 123.0, resolved.Redemption.Price)
	assert.Equal(t, domain.SourceRedemption, resolved.Redemption.Source)

	// The redemption price is also the evaluation price once redeemed
	assert.Equal(t, 123.0, resolved.Evaluation.Price)
	assert.True(t, resolved.Evaluation.Source.Authoritative())
}

func TestResolveHistoricalPricesThroughTickerVariants(t *testing.T) {
	// Synced series are keyed by suffixed full tickers, product documents
	// carry the bare ticker. Dated lookups must walk the same variant list
	// as the lookback scanner.
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}
	history := &fakeHistory{onDate: map[string]*marketdata.HistoricalPriceRecord{
		"AAPL.US|2023-01-10": {Date: "2023-01-10", Close: 98.5},
		"AAPL.US|2025-01-10": {Date: "2025-01-10", Close: 123},
	}}
	lc := Lifecycle{
		MaturityPassed: true,
		RedemptionDate: datePtr("2025-01-10"),
		RedemptionKind: domain.RedemptionMaturity,
	}

	resolved := newTestResolver(history, nil).Resolve(u, p, lc, mustDate("2025-06-01"), false)

	require.NotNil(t, resolved.TradeDate)
	assert.Equal(t, 98.5, resolved.TradeDate.Price)
	assert.Equal(t, domain.SourceMarketDataCache, resolved.TradeDate.Source)

	require.NotNil(t, resolved.Redemption)
	assert.Equal(t, 123.0, resolved.Redemption.Price)
	assert.Equal(t, domain.SourceRedemption, resolved.Redemption.Source)
	assert.True(t, resolved.Evaluation.Source.Authoritative())
}

func TestResolveRedemptionFallsBackToLastKnownPrice(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{
		Ticker: "AAPL",
		Strike: 100,
		SecurityData: map[string]interface{}{
			"price": 117.0,
			"date":  "2025-01-08",
		},
	}
	lc := Lifecycle{
		MaturityPassed: true,
		RedemptionDate: datePtr("2025-01-10"),
		RedemptionKind: domain.RedemptionMaturity,
	}

	resolved := newTestResolver(&fakeHistory{}, nil).Resolve(u, p, lc, mustDate("2025-06-01"), false)

	require.NotNil(t, resolved.Redemption)
	assert.Equal(t, 117.0, resolved.Redemption.Price)
	assert.Equal(t, domain.SourceFallbackCurrentPrice, resolved.Redemption.Source)
}

func TestResolveFinalObservationPrice(t *testing.T) {
	p := &products.Product{
		TradeDate:            datePtr("2023-01-10"),
		FinalObservationDate: datePtr("2025-01-05"),
	}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}
	history := &fakeHistory{onDate: map[string]*marketdata.HistoricalPriceRecord{
		"AAPL|2025-01-05": {Date: "2025-01-05", Close: 130},
	}}
	lc := Lifecycle{
		FinalObservationPassed: true,
		RedemptionDate:         p.FinalObservationDate,
		RedemptionKind:         domain.RedemptionFinalObservation,
	}

	resolved := newTestResolver(history, nil).Resolve(u, p, lc, mustDate("2025-06-01"), false)

	require.NotNil(t, resolved.FinalObservation)
	assert.Equal(t, 130.0, resolved.FinalObservation.Price)
	assert.Equal(t, domain.SourceFinalObservation, resolved.FinalObservation.Source)
	assert.Equal(t, domain.SourceFinalObservation, resolved.Evaluation.Source)
}

func TestResolveLivePriceReusesTodayCache(t *testing.T) {
	now := mustDate("2025-06-01")
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{
		Ticker: "AAPL",
		Strike: 100,
		SecurityData: map[string]interface{}{
			"price": 142.0,
			"date":  "2025-06-01",
		},
	}

	// No quote source wired: the cached price must carry the resolution
	resolved := newTestResolver(&fakeHistory{}, nil).Resolve(u, p, Lifecycle{}, now, false)

	require.NotNil(t, resolved.Live)
	assert.Equal(t, 142.0, resolved.Live.Price)
	assert.Equal(t, domain.SourceLive, resolved.Live.Source)
	assert.Equal(t, 142.0, resolved.Evaluation.Price)
}

func TestResolveLivePriceIgnoresStaleCache(t *testing.T) {
	now := mustDate("2025-06-01")
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{
		Ticker: "AAPL",
		Strike: 100,
		SecurityData: map[string]interface{}{
			"price": 142.0,
			"date":  "2025-05-28",
		},
	}
	quotes := &fakeQuotes{quotes: map[string]*marketdata.CurrentQuote{
		"AAPL": {Date: now, Price: 145.0},
	}}

	resolved := newTestResolver(&fakeHistory{}, quotes).Resolve(u, p, Lifecycle{}, now, false)

	require.NotNil(t, resolved.Live)
	assert.Equal(t, 145.0, resolved.Live.Price)
}

func TestResolveFallsBackToInitialWhenNothingResolves(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}

	resolved := newTestResolver(&fakeHistory{}, &fakeQuotes{}).Resolve(u, p, Lifecycle{}, mustDate("2025-06-01"), false)

	assert.Nil(t, resolved.Live)
	assert.Equal(t, 100.0, resolved.Evaluation.Price)
	assert.Equal(t, domain.SourceInitialFallback, resolved.Evaluation.Source)
	assert.False(t, resolved.Evaluation.Source.Authoritative())
}

// erroringHistory fails every lookup, exercising the no-throw contract.
type erroringHistory struct{}

func (erroringHistory) FindByFullTicker(string) (*marketdata.HistoricalDocument, error) {
	return nil, errors.New("db locked")
}

func (erroringHistory) GetOnDate(string, time.Time) (*marketdata.HistoricalPriceRecord, error) {
	return nil, errors.New("db locked")
}

type erroringQuotes struct{}

func (erroringQuotes) LookupCurrent(string) (*marketdata.CurrentQuote, error) {
	return nil, errors.New("provider down")
}

func TestResolveTreatsLookupErrorsAsMisses(t *testing.T) {
	p := &products.Product{TradeDate: datePtr("2023-01-10")}
	u := products.Underlying{Ticker: "AAPL", Strike: 100}
	lc := Lifecycle{
		MaturityPassed: true,
		RedemptionDate: datePtr("2025-01-10"),
		RedemptionKind: domain.RedemptionMaturity,
	}

	resolved := newTestResolver(erroringHistory{}, erroringQuotes{}).Resolve(u, p, lc, mustDate("2025-06-01"), false)

	assert.Nil(t, resolved.Redemption)
	assert.Nil(t, resolved.Live)
	assert.Equal(t, domain.SourceInitialFallback, resolved.Evaluation.Source)
}
