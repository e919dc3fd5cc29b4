// Package evaluation implements the product evaluation engine: lifecycle
// classification, price resolution, barrier lookback scanning, basket
// aggregation and the per-family payoff calculators.
//
// Evaluation is a pure pipeline: it never mutates the product documents it is
// given. Resolved prices come back on the result for the caller to persist
// explicitly if it wants the legacy cache behavior.
package evaluation

import (
	"time"

	"notewatch/internal/domain"
	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

// HistorySource is the engine's port to cached historical price series.
// Implementations must return empty/nil results for unknown tickers rather
// than errors; the engine treats every miss as recoverable.
type HistorySource interface {
	FindByFullTicker(fullTicker string) (*marketdata.HistoricalDocument, error)
	GetOnDate(fullTicker string, date time.Time) (*marketdata.HistoricalPriceRecord, error)
}

// QuoteSource is the engine's port to live market prices.
type QuoteSource interface {
	LookupCurrent(ticker string) (*marketdata.CurrentQuote, error)
}

// PriceNormalizer rebases minor-unit quoted prices before barrier and strike
// comparisons.
type PriceNormalizer interface {
	NormalizePriceToGBP(price, referencePrice float64, ticker string) float64
	NormalizeHistoricalPrices(records []marketdata.HistoricalPriceRecord, referencePrice float64, ticker string) []marketdata.HistoricalPriceRecord
}

// Clock abstracts "now" so date-boundary behavior is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.Time }

// ResolvedPrices holds every price the resolver produced for one underlying.
type ResolvedPrices struct {
	// Initial is the reference price performance is measured against:
	// the contractual strike for barrier notes, the trade-date price
	// (with strike fallback) for participation notes.
	Initial domain.PriceQuote `json:"initial"`

	TradeDate        *domain.PriceQuote `json:"tradeDate,omitempty"`
	Redemption       *domain.PriceQuote `json:"redemption,omitempty"`
	FinalObservation *domain.PriceQuote `json:"finalObservation,omitempty"`
	Live             *domain.PriceQuote `json:"live,omitempty"`

	// Evaluation is the price selected for performance math. When its source
	// is initial_fallback no authoritative market data existed and derived
	// figures are indeterminate.
	Evaluation domain.PriceQuote `json:"evaluation"`
}

// UnderlyingEvaluation is the per-underlying slice of an evaluation result.
type UnderlyingEvaluation struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name,omitempty"`
	ISIN   string  `json:"isin,omitempty"`
	Strike float64 `json:"strike"`

	Prices ResolvedPrices `json:"prices"`

	// Performance is percent vs the initial price, nil when no authoritative
	// evaluation price exists.
	Performance *float64 `json:"performance,omitempty"`
}

// SecurityData rebuilds the legacy cache document for this underlying so a
// caller can persist the resolved prices explicitly.
func (u *UnderlyingEvaluation) SecurityData() map[string]interface{} {
	data := map[string]interface{}{
		"ticker": u.Ticker,
	}
	if u.Prices.Live != nil {
		data["price"] = u.Prices.Live.Price
		data["date"] = u.Prices.Live.Date.UTC().Format("2006-01-02")
	}
	if u.Prices.TradeDate != nil {
		data["tradeDatePrice"] = u.Prices.TradeDate.Price
	}
	if u.Prices.Redemption != nil {
		data["redemptionPrice"] = u.Prices.Redemption.Price
	}
	if u.Prices.FinalObservation != nil {
		data["finalObservationPrice"] = u.Prices.FinalObservation.Price
	}
	return data
}

// OrionUnderlyingResult extends the per-underlying evaluation with barrier facts.
type OrionUnderlyingResult struct {
	UnderlyingEvaluation

	BarrierScan     BarrierScan `json:"barrierScan"`
	HitUpperBarrier bool        `json:"hitUpperBarrier"`
	HitLowerBarrier bool        `json:"hitLowerBarrier"`

	// ConsideredPerformance is the rebate when the upper barrier was touched,
	// the raw performance otherwise; nil when performance is unknown.
	ConsideredPerformance *float64 `json:"consideredPerformance,omitempty"`
}

// BarrierHitStatus summarizes upper-barrier hits across a basket.
type BarrierHitStatus string

const (
	BarrierHitAll     BarrierHitStatus = "all"
	BarrierHitNone    BarrierHitStatus = "none"
	BarrierHitPartial BarrierHitStatus = "partial"
)

// OrionEvaluation is the family-specific payoff section for barrier notes.
type OrionEvaluation struct {
	Params      products.OrionParams    `json:"params"`
	Underlyings []OrionUnderlyingResult `json:"underlyings"`

	// BasketConsideredPerformance is the average of per-underlying considered
	// performances - Orion baskets always average, they are not mode-selectable.
	BasketConsideredPerformance *float64 `json:"basketConsideredPerformance,omitempty"`

	WorstPerformance *float64 `json:"worstPerformance,omitempty"`
	ProtectionIntact bool     `json:"protectionIntact"`

	// CapitalReturn is the indicative maturity value: 100 + basket considered
	// performance while protection holds, full downside participation after a
	// lower-barrier breach.
	CapitalReturn *float64 `json:"capitalReturn,omitempty"`

	UpperBarrierHits   int              `json:"upperBarrierHits"`
	UpperBarrierStatus BarrierHitStatus `json:"upperBarrierStatus"`

	// PerformanceSpread is the population standard deviation of per-underlying
	// performances, a dispersion diagnostic for reports.
	PerformanceSpread *float64 `json:"performanceSpread,omitempty"`
}

// RedemptionEstimateType labels which leg produced the redemption estimate.
type RedemptionEstimateType string

const (
	RedemptionEstimateParticipation RedemptionEstimateType = "participation"
	RedemptionEstimateIssuerCall    RedemptionEstimateType = "issuer_call"
)

// ParticipationEvaluation is the family-specific payoff section for
// participation notes.
type ParticipationEvaluation struct {
	Params products.ParticipationParams `json:"params"`

	Type RedemptionEstimateType `json:"type"`

	BasketPerformance       *float64 `json:"basketPerformance,omitempty"`
	ParticipatedPerformance *float64 `json:"participatedPerformance,omitempty"`
	RawRedemption           *float64 `json:"rawRedemption,omitempty"`

	// FinalRedemption has the call-conditional capital floor applied. When the
	// note was not called, no floor applies regardless of configuration.
	FinalRedemption   *float64 `json:"finalRedemption,omitempty"`
	ProtectionApplied bool     `json:"protectionApplied"`

	// Issuer-call leg: call price and rebate are additive, never multiplied.
	DaysHeld      int      `json:"daysHeld,omitempty"`
	CallPrice     *float64 `json:"callPrice,omitempty"`
	CallRebate    *float64 `json:"callRebate,omitempty"`
	TotalReceived *float64 `json:"totalReceived,omitempty"`
}

// EvaluationResult is the immutable output record of one evaluation run.
type EvaluationResult struct {
	ID          string               `json:"id"`
	ProductID   string               `json:"productId"`
	DisplayName string               `json:"displayName"`
	Family      domain.ProductFamily `json:"family"`
	EvaluatedAt time.Time            `json:"evaluatedAt"`

	Lifecycle Lifecycle            `json:"lifecycle"`
	Status    domain.ProductStatus `json:"status"`

	Underlyings []UnderlyingEvaluation `json:"underlyings"`

	Orion         *OrionEvaluation         `json:"orion,omitempty"`
	Participation *ParticipationEvaluation `json:"participation,omitempty"`

	// Indeterminate flags results where missing or malformed data prevented a
	// definitive payoff figure. Callers decide whether that is fatal; the
	// engine never conflates it with a real zero.
	Indeterminate        bool     `json:"indeterminate"`
	IndeterminateReasons []string `json:"indeterminateReasons,omitempty"`
}
