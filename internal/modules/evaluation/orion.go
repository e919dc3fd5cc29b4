package evaluation

import (
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/products"
)

// OrionCalculator prices memory-coupon barrier notes.
type OrionCalculator struct {
	scanner *Scanner
	log     zerolog.Logger
}

// NewOrionCalculator creates a new Orion payoff calculator
func NewOrionCalculator(scanner *Scanner, log zerolog.Logger) *OrionCalculator {
	return &OrionCalculator{
		scanner: scanner,
		log:     log.With().Str("calculator", "orion").Logger(),
	}
}

// Evaluate computes the Orion payoff section from resolved underlyings.
//
// Per underlying, the considered performance is the rebate once the upper
// barrier has been touched anywhere on the historical path, the raw
// performance otherwise. The basket always averages considered performances -
// Orion is not basket-mode selectable.
func (c *OrionCalculator) Evaluate(p *products.Product, params products.OrionParams, underlyings []UnderlyingEvaluation, now time.Time) *OrionEvaluation {
	result := &OrionEvaluation{Params: params}

	lowerThreshold := params.LowerBarrier - 100

	var considered []float64
	var performances []float64
	hits := 0
	scannedUnderlyings := 0

	for i := range p.Underlyings {
		source := p.Underlyings[i]
		ur := OrionUnderlyingResult{UnderlyingEvaluation: underlyings[i]}

		ur.BarrierScan = c.scanner.ScanUpperBarrier(source, p, params.UpperBarrier, now)
		ur.HitUpperBarrier = ur.BarrierScan.Touched()
		if ur.BarrierScan.Outcome != ScanIndeterminate {
			scannedUnderlyings++
		}
		if ur.HitUpperBarrier {
			hits++
		}

		if perf := ur.Performance; perf != nil {
			performances = append(performances, *perf)
			ur.HitLowerBarrier = *perf <= lowerThreshold
		}

		// The rebate substitutes for performance once the barrier is touched,
		// so a touched underlying contributes even when its performance is
		// unknown.
		switch {
		case ur.HitUpperBarrier:
			value := params.Rebate
			ur.ConsideredPerformance = &value
			considered = append(considered, value)
		case ur.Performance != nil:
			value := *ur.Performance
			ur.ConsideredPerformance = &value
			considered = append(considered, value)
		}

		result.Underlyings = append(result.Underlyings, ur)
	}

	result.UpperBarrierHits = hits
	switch {
	case len(result.Underlyings) == 0 || hits == 0:
		result.UpperBarrierStatus = BarrierHitNone
	case hits == len(result.Underlyings):
		result.UpperBarrierStatus = BarrierHitAll
	default:
		result.UpperBarrierStatus = BarrierHitPartial
	}

	result.BasketConsideredPerformance = AggregateBasket(considered, BasketAverage)
	result.PerformanceSpread = performanceSpread(performances)

	// Indicative maturity value. Protection holds while the worst performer
	// sits at or above the lower threshold (the boundary itself is protected);
	// a breach means full downside participation with no floor.
	if worst := AggregateBasket(performances, BasketWorstOf); worst != nil {
		result.WorstPerformance = worst
		result.ProtectionIntact = *worst >= lowerThreshold

		var capitalReturn float64
		if result.ProtectionIntact {
			capitalReturn = 100 + *result.BasketConsideredPerformance
		} else {
			capitalReturn = 100 + *worst
		}
		result.CapitalReturn = &capitalReturn
	}

	c.log.Debug().
		Int("underlyings", len(result.Underlyings)).
		Int("scanned", scannedUnderlyings).
		Int("upper_barrier_hits", hits).
		Bool("protection_intact", result.ProtectionIntact).
		Msg("Orion payoff evaluated")

	return result
}
