// Package marketdata provides historical price series and live quote access.
//
// Series are keyed by "full ticker": symbol plus exchange suffix (AAPL.US).
// Imported documents are inconsistent about suffixes, so lookups that may
// cross exchanges go through the variant lists below.
package marketdata

import "time"

// HistoricalPriceRecord is one end-of-day observation.
// Dates are calendar dates in YYYY-MM-DD form; all window comparisons in the
// engine are calendar-date string comparisons, never timestamps.
type HistoricalPriceRecord struct {
	Date          string   `json:"date"`
	Close         float64  `json:"close"`
	AdjustedClose *float64 `json:"adjustedClose,omitempty"`
}

// EffectiveClose prefers the adjusted close when present.
func (r HistoricalPriceRecord) EffectiveClose() float64 {
	if r.AdjustedClose != nil {
		return *r.AdjustedClose
	}
	return r.Close
}

// HistoricalDocument is a complete per-ticker price series.
type HistoricalDocument struct {
	FullTicker string                  `json:"fullTicker"`
	History    []HistoricalPriceRecord `json:"history"`
}

// CurrentQuote is a live price observation from a market data provider.
type CurrentQuote struct {
	Date     time.Time `json:"date"`
	Currency string    `json:"currency,omitempty"`
	Price    float64   `json:"price"`
}

// LiveSuffixes is the exchange-suffix order tried for current-price lookups.
var LiveSuffixes = []string{"US", "NASDAQ", "NYSE", "LSE", "PA", "DE"}

// LookbackSuffixes is the exchange-suffix order tried when resolving a
// historical series for the barrier scanner.
var LookbackSuffixes = []string{"US", "PA", "DE", "LSE", "CO"}

// TickerVariants expands a ticker into the lookup candidates for the given
// suffix list: the raw ticker first, then base-symbol + suffix combinations.
// A ticker that already carries a suffix contributes its base symbol.
func TickerVariants(ticker string, suffixes []string) []string {
	base := ticker
	for i := len(ticker) - 1; i >= 0; i-- {
		if ticker[i] == '.' {
			base = ticker[:i]
			break
		}
	}

	variants := []string{ticker}
	seen := map[string]bool{ticker: true}
	for _, suffix := range suffixes {
		candidate := base + "." + suffix
		if !seen[candidate] {
			variants = append(variants, candidate)
			seen[candidate] = true
		}
	}
	return variants
}
