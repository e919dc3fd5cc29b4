package evaluation

import (
	"fmt"
	"math"
	"time"

	"notewatch/internal/domain"
	"notewatch/internal/modules/products"
)

// Lifecycle is the classified state of a product at one instant.
type Lifecycle struct {
	Status domain.ProductStatus `json:"status"`

	MaturityPassed         bool `json:"maturityPassed"`
	FinalObservationPassed bool `json:"finalObservationPassed"`
	IsCalled               bool `json:"isCalled"`

	// RedemptionDate is the lifecycle event date that fixes the redemption
	// price lookup; nil while the product is live.
	RedemptionDate *time.Time            `json:"redemptionDate,omitempty"`
	RedemptionKind domain.RedemptionKind `json:"redemptionKind,omitempty"`

	DaysToMaturity      int    `json:"daysToMaturity"`
	DaysToMaturityLabel string `json:"daysToMaturityLabel,omitempty"`
}

// stripTime reduces a timestamp to its UTC calendar date.
func stripTime(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysToMaturity computes the signed ceil day count until maturity.
func daysToMaturity(maturity *time.Time, now time.Time) (int, string) {
	if maturity == nil {
		return 0, ""
	}

	days := int(math.Ceil(maturity.Sub(now).Hours() / 24))
	if days < 0 {
		return days, fmt.Sprintf("%d days (matured)", -days)
	}
	return days, fmt.Sprintf("%d days", days)
}

// ClassifyOrion determines the lifecycle of a barrier note.
//
// The final-observation comparison is strict (finalObs < today): closes for
// the observation date are only assumed available the next calendar day.
// The maturity comparison is inclusive (maturity <= today): settlement occurs
// on or after that date. Both compare calendar dates, not timestamps.
func ClassifyOrion(p *products.Product, now time.Time) Lifecycle {
	today := stripTime(now)
	maturity := p.EffectiveMaturity()
	finalObs := p.EffectiveFinalObservation()

	lc := Lifecycle{Status: domain.StatusLive}

	if finalObs != nil && stripTime(*finalObs).Before(today) {
		lc.FinalObservationPassed = true
	}
	if maturity != nil && !stripTime(*maturity).After(today) {
		lc.MaturityPassed = true
	}

	// Final observation is preferred as the redemption date when both events
	// have passed - it is the contractual observation point.
	switch {
	case lc.FinalObservationPassed:
		lc.Status = domain.StatusMatured
		lc.RedemptionDate = finalObs
		lc.RedemptionKind = domain.RedemptionFinalObservation
	case lc.MaturityPassed:
		lc.Status = domain.StatusMatured
		lc.RedemptionDate = maturity
		lc.RedemptionKind = domain.RedemptionMaturity
	}

	lc.DaysToMaturity, lc.DaysToMaturityLabel = daysToMaturity(maturity, now)
	return lc
}

// ClassifyParticipation determines the lifecycle of a participation note.
//
// The issuer-call check compares full timestamps with <=, NOT calendar dates.
// This asymmetry against the Orion rules affects boundary-day behavior and is
// deliberate; do not unify the two.
func ClassifyParticipation(p *products.Product, params products.ParticipationParams, now time.Time) Lifecycle {
	today := stripTime(now)
	maturity := p.EffectiveMaturity()

	lc := Lifecycle{Status: domain.StatusLive}

	if maturity != nil && !stripTime(*maturity).After(today) {
		lc.MaturityPassed = true
	}
	if params.IssuerCallDate != nil && !params.IssuerCallDate.After(now) {
		lc.IsCalled = true
	}

	// Called takes precedence over matured in status reporting.
	switch {
	case lc.IsCalled:
		lc.Status = domain.StatusCalled
		lc.RedemptionDate = params.IssuerCallDate
		lc.RedemptionKind = domain.RedemptionIssuerCall
	case lc.MaturityPassed:
		lc.Status = domain.StatusMatured
		lc.RedemptionDate = maturity
		lc.RedemptionKind = domain.RedemptionMaturity
	}

	lc.DaysToMaturity, lc.DaysToMaturityLabel = daysToMaturity(maturity, now)
	return lc
}
