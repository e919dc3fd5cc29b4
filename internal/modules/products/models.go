// Package products provides structured product documents and their storage.
package products

import (
	"time"

	"notewatch/internal/domain"
)

// Underlying is one constituent asset of a structured note.
// Strike is the contractual reference level - the authoritative "initial price"
// for barrier comparisons, distinct from any market price observed on trade date.
type Underlying struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name,omitempty"`
	ISIN   string  `json:"isin,omitempty"`
	Strike float64 `json:"strike"`

	// SecurityData is the legacy resolved-price cache carried on imported
	// documents (keys: price, date, tradeDatePrice, redemptionPrice,
	// maturityPrice, finalObservationPrice, currency, ticker). The engine only
	// reads it; writing back is the caller's explicit responsibility.
	SecurityData map[string]interface{} `json:"securityData,omitempty"`
}

// CachedPrice returns the last known price from SecurityData, if any.
func (u *Underlying) CachedPrice() (float64, bool) {
	if u.SecurityData == nil {
		return 0, false
	}
	return numValue(u.SecurityData["price"])
}

// CachedPriceDate returns the date of the cached price as a YYYY-MM-DD string.
func (u *Underlying) CachedPriceDate() (string, bool) {
	if u.SecurityData == nil {
		return "", false
	}
	switch v := u.SecurityData["date"].(type) {
	case string:
		if len(v) >= 10 {
			return v[:10], true
		}
		return v, v != ""
	case time.Time:
		return v.UTC().Format("2006-01-02"), true
	}
	return "", false
}

// Product is a structured note document. Imported documents use inconsistent
// field names for dates and structure parameters; all synonyms are kept and
// read through the Effective* accessors and the params extraction step.
type Product struct {
	ID       string               `json:"id"`
	Name     string               `json:"name,omitempty"`
	Family   domain.ProductFamily `json:"family"`
	Currency string               `json:"currency,omitempty"`

	TradeDate *time.Time `json:"tradeDate,omitempty"`
	IssueDate *time.Time `json:"issueDate,omitempty"`
	ValueDate *time.Time `json:"valueDate,omitempty"`

	MaturityDate *time.Time `json:"maturityDate,omitempty"`
	Maturity     *time.Time `json:"maturity,omitempty"`

	FinalObservationDate *time.Time `json:"finalObservationDate,omitempty"`
	FinalObservation     *time.Time `json:"finalObservation,omitempty"`

	Underlyings []Underlying `json:"underlyings"`

	// Synonymous structure-parameter bags. Fields are read through paramBags()
	// in this order; never access these directly from calculators.
	StructureParams     map[string]interface{} `json:"structureParams,omitempty"`
	Structure           map[string]interface{} `json:"structure,omitempty"`
	StructureParameters map[string]interface{} `json:"structureParameters,omitempty"`
}

// EffectiveTradeDate resolves the scan-window start date: tradeDate, then
// issueDate, then valueDate, first present.
func (p *Product) EffectiveTradeDate() *time.Time {
	for _, d := range []*time.Time{p.TradeDate, p.IssueDate, p.ValueDate} {
		if d != nil {
			return d
		}
	}
	return nil
}

// EffectiveMaturity resolves maturityDate with its legacy synonym.
func (p *Product) EffectiveMaturity() *time.Time {
	if p.MaturityDate != nil {
		return p.MaturityDate
	}
	return p.Maturity
}

// EffectiveFinalObservation resolves finalObservationDate with its legacy synonym.
func (p *Product) EffectiveFinalObservation() *time.Time {
	if p.FinalObservationDate != nil {
		return p.FinalObservationDate
	}
	return p.FinalObservation
}

// paramBags returns the structure-parameter bags in lookup priority order.
func (p *Product) paramBags() []map[string]interface{} {
	return []map[string]interface{}{p.StructureParams, p.Structure, p.StructureParameters}
}
