package evaluation

import (
	"gonum.org/v1/gonum/stat"
)

// Basket aggregation modes.
const (
	BasketWorstOf = "worst-of"
	BasketBestOf  = "best-of"
	BasketAverage = "average"
)

// AggregateBasket combines per-underlying performances into one basket
// figure. Empty input yields nil; an unrecognized mode defaults to worst-of,
// the conservative choice.
func AggregateBasket(performances []float64, mode string) *float64 {
	if len(performances) == 0 {
		return nil
	}

	var result float64
	switch mode {
	case BasketBestOf:
		result = performances[0]
		for _, p := range performances[1:] {
			if p > result {
				result = p
			}
		}
	case BasketAverage:
		result = stat.Mean(performances, nil)
	default: // worst-of
		result = performances[0]
		for _, p := range performances[1:] {
			if p < result {
				result = p
			}
		}
	}

	return &result
}

// performanceSpread is the population standard deviation of performances,
// used as a dispersion diagnostic. Needs at least two observations.
func performanceSpread(performances []float64) *float64 {
	if len(performances) < 2 {
		return nil
	}
	spread := stat.PopStdDev(performances, nil)
	return &spread
}
