package evaluation

import (
	"math"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/products"
)

// ParticipationCalculator prices participation notes with optional issuer call.
type ParticipationCalculator struct {
	log zerolog.Logger
}

// NewParticipationCalculator creates a new participation payoff calculator
func NewParticipationCalculator(log zerolog.Logger) *ParticipationCalculator {
	return &ParticipationCalculator{
		log: log.With().Str("calculator", "participation").Logger(),
	}
}

// Evaluate computes the participation payoff section.
//
// The capital floor is conditional on the issuer call: a configured
// protection level is ignored entirely while the note has not been called.
func (c *ParticipationCalculator) Evaluate(p *products.Product, params products.ParticipationParams, underlyings []UnderlyingEvaluation, lc Lifecycle) *ParticipationEvaluation {
	result := &ParticipationEvaluation{
		Params: params,
		Type:   RedemptionEstimateParticipation,
	}

	var performances []float64
	for i := range underlyings {
		if perf := underlyings[i].Performance; perf != nil {
			performances = append(performances, *perf)
		}
	}

	basket := AggregateBasket(performances, params.BasketType)
	result.BasketPerformance = basket

	if basket != nil {
		participated := *basket * (params.ParticipationRate / 100.0)
		raw := 100 + participated
		result.ParticipatedPerformance = &participated
		result.RawRedemption = &raw

		final := raw
		if lc.IsCalled && params.ProtectionLevel != nil {
			if raw < *params.ProtectionLevel {
				final = *params.ProtectionLevel
				result.ProtectionApplied = true
			}
		}
		result.FinalRedemption = &final
	}

	if lc.IsCalled {
		result.Type = RedemptionEstimateIssuerCall
		c.applyIssuerCall(p, params, result)
	}

	c.log.Debug().
		Str("type", string(result.Type)).
		Bool("protection_applied", result.ProtectionApplied).
		Msg("Participation payoff evaluated")

	return result
}

// applyIssuerCall computes the call leg: call price plus rebate, strictly
// additive - the two amounts are never combined multiplicatively.
func (c *ParticipationCalculator) applyIssuerCall(p *products.Product, params products.ParticipationParams, result *ParticipationEvaluation) {
	callPrice := 100.0
	if params.IssuerCallPrice != nil {
		callPrice = *params.IssuerCallPrice
	}

	rebate := params.IssuerCallRebate
	if params.IssuerCallRebateType == products.RebatePerAnnum {
		rebate = 0
		if params.IssuerCallDate != nil {
			if tradeDate := p.EffectiveTradeDate(); tradeDate != nil {
				// Prorate the annualized rebate linearly over the holding period
				daysHeld := int(math.Ceil(params.IssuerCallDate.Sub(*tradeDate).Hours() / 24))
				if daysHeld > 0 {
					rebate = params.IssuerCallRebate * float64(daysHeld) / 365.0
					result.DaysHeld = daysHeld
				}
			}
		}
	}

	total := callPrice + rebate
	result.CallPrice = &callPrice
	result.CallRebate = &rebate
	result.TotalReceived = &total
}
