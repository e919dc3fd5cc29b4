// Package currency provides price normalization and currency conversion.
//
// The quote-convention problem this solves: LSE equities are usually quoted in
// pence (GBp/GBX) while strikes and barriers on product documents are in
// pounds. Comparing a 4,520p close against a 45.20 strike without rebasing
// would flag every barrier as touched.
package currency

import (
	"strings"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/marketdata"
)

// minorUnitRatio is the ratio between a price and its reference level above
// which the price is assumed to be quoted in minor units (pence vs pounds).
// A true minor-unit quote sits at ~100x; 50 leaves headroom for real moves.
const minorUnitRatio = 50.0

// Normalizer rebases minor-unit quoted prices to major units before they are
// compared with strikes and barriers. All transforms are pure.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer creates a new price normalizer
func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{
		log: log.With().Str("service", "currency_normalizer").Logger(),
	}
}

// isLSETicker reports whether the full ticker points at a London listing.
func isLSETicker(ticker string) bool {
	upper := strings.ToUpper(ticker)
	return strings.HasSuffix(upper, ".LSE") || strings.HasSuffix(upper, ".L")
}

// NormalizePriceToGBP rebases a single price to major units using the
// contractual reference level as the scale hint. Prices that are not
// minor-unit quoted come back unchanged.
func (n *Normalizer) NormalizePriceToGBP(price, referencePrice float64, ticker string) float64 {
	if !isLSETicker(ticker) {
		return price
	}
	if referencePrice <= 0 || price <= 0 {
		return price
	}

	if price/referencePrice >= minorUnitRatio {
		n.log.Debug().
			Str("ticker", ticker).
			Float64("price", price).
			Float64("reference", referencePrice).
			Msg("Rebasing pence-quoted price to GBP")
		return price / 100.0
	}

	return price
}

// NormalizeHistoricalPrices rebases a full series against the reference level.
// The input slice is not modified.
func (n *Normalizer) NormalizeHistoricalPrices(records []marketdata.HistoricalPriceRecord, referencePrice float64, ticker string) []marketdata.HistoricalPriceRecord {
	if len(records) == 0 {
		return records
	}

	normalized := make([]marketdata.HistoricalPriceRecord, len(records))
	for i, record := range records {
		out := record
		out.Close = n.NormalizePriceToGBP(record.Close, referencePrice, ticker)
		if record.AdjustedClose != nil {
			adj := n.NormalizePriceToGBP(*record.AdjustedClose, referencePrice, ticker)
			out.AdjustedClose = &adj
		}
		normalized[i] = out
	}

	return normalized
}
