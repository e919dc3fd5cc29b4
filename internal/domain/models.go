// Package domain provides core domain models and types.
package domain

import "time"

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	// CurrencyGBX is the minor-unit quote convention for LSE instruments (pence)
	CurrencyGBX Currency = "GBX"
)

// ProductFamily identifies the payoff family of a structured note
type ProductFamily string

const (
	// FamilyOrion represents memory-coupon barrier notes
	FamilyOrion ProductFamily = "orion"
	// FamilyParticipation represents participation notes with optional issuer call
	FamilyParticipation ProductFamily = "participation_note"
)

// ProductStatus is the lifecycle state of a product
type ProductStatus string

const (
	StatusLive    ProductStatus = "live"
	StatusMatured ProductStatus = "matured"
	StatusCalled  ProductStatus = "called"
)

// PriceSource identifies where a resolved price came from.
// The distinction matters: some sources are authoritative for payoff math,
// others only signal that real data was missing.
type PriceSource string

const (
	// SourceMarketDataCache - price found in the historical series for the requested date
	SourceMarketDataCache PriceSource = "market_data_cache"
	// SourceFallbackCurrentPrice - last known cached price used because the dated lookup missed
	SourceFallbackCurrentPrice PriceSource = "fallback_current_price"
	// SourceStrikeFallback - contractual strike used because no trade-date price exists
	SourceStrikeFallback PriceSource = "strike_fallback"
	// SourceInitialFallback - strike/trade-date price standing in for a missing
	// evaluation price. Never authoritative: downstream math must treat a quote
	// with this source as "no data", not as a real observation.
	SourceInitialFallback PriceSource = "initial_fallback"
	// SourceRedemption - price observed on the redemption date
	SourceRedemption PriceSource = "redemption"
	// SourceFinalObservation - price observed on the final observation date
	SourceFinalObservation PriceSource = "final_observation"
	// SourceLive - current market price
	SourceLive PriceSource = "live"
	// SourceIssuerCall - price observed on the issuer call date
	SourceIssuerCall PriceSource = "issuer_call"
)

// Authoritative reports whether a price from this source may feed payoff math.
func (s PriceSource) Authoritative() bool {
	return s != SourceInitialFallback && s != ""
}

// RedemptionKind identifies which lifecycle event fixed the redemption date
type RedemptionKind string

const (
	RedemptionMaturity         RedemptionKind = "maturity"
	RedemptionFinalObservation RedemptionKind = "final_observation"
	RedemptionIssuerCall       RedemptionKind = "issuer_call"
)

// PriceQuote is a resolved price with provenance
type PriceQuote struct {
	Date   time.Time   `json:"date"`
	Source PriceSource `json:"source"`
	Price  float64     `json:"price"`
}

// Money represents a monetary value with currency
type Money struct {
	Currency Currency `json:"currency"`
	Amount   float64  `json:"amount"`
}

// NewMoney creates a new Money value
func NewMoney(amount float64, currency Currency) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}
