package evaluation

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"notewatch/internal/domain"
	"notewatch/internal/modules/products"
)

// Service runs the full evaluation pipeline for one product:
// lifecycle -> price resolution -> barrier scan -> basket -> payoff.
type Service struct {
	resolver      *Resolver
	orion         *OrionCalculator
	participation *ParticipationCalculator
	clock         Clock
	log           zerolog.Logger
}

// NewService creates a new evaluation service
func NewService(
	resolver *Resolver,
	orion *OrionCalculator,
	participation *ParticipationCalculator,
	clock Clock,
	log zerolog.Logger,
) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		resolver:      resolver,
		orion:         orion,
		participation: participation,
		clock:         clock,
		log:           log.With().Str("service", "evaluation").Logger(),
	}
}

// Evaluate produces an evaluation result for a product document.
// The product is never mutated; data gaps surface as indeterminate flags on
// the result, not as errors. An error is returned only for requests the
// engine cannot interpret at all (unknown payoff family).
func (s *Service) Evaluate(product *products.Product) (*EvaluationResult, error) {
	now := s.clock.Now()

	result := &EvaluationResult{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		Family:      product.Family,
		EvaluatedAt: now,
	}

	switch product.Family {
	case domain.FamilyOrion:
		params := product.ExtractOrionParams()
		result.Lifecycle = ClassifyOrion(product, now)
		result.Underlyings = s.resolveAll(product, result.Lifecycle, now, false)
		result.Orion = s.orion.Evaluate(product, params, result.Underlyings, now)
		s.flagOrionGaps(result)

	case domain.FamilyParticipation:
		params := product.ExtractParticipationParams()
		result.Lifecycle = ClassifyParticipation(product, params, now)
		result.Underlyings = s.resolveAll(product, result.Lifecycle, now, true)
		result.Participation = s.participation.Evaluate(product, params, result.Underlyings, result.Lifecycle)
		s.flagParticipationGaps(result)

	default:
		return nil, fmt.Errorf("unknown product family: %q", product.Family)
	}

	result.Status = result.Lifecycle.Status
	result.DisplayName = displayName(product)

	s.log.Info().
		Str("product_id", product.ID).
		Str("family", string(product.Family)).
		Str("status", string(result.Status)).
		Bool("indeterminate", result.Indeterminate).
		Msg("Product evaluated")

	return result, nil
}

// resolveAll resolves prices for every underlying concurrently. Underlyings
// are independent of each other; only the pipeline stages are ordered.
func (s *Service) resolveAll(product *products.Product, lc Lifecycle, now time.Time, useTradeDateInitial bool) []UnderlyingEvaluation {
	evaluated := make([]UnderlyingEvaluation, len(product.Underlyings))

	var wg sync.WaitGroup
	for i := range product.Underlyings {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			u := product.Underlyings[idx]

			ue := UnderlyingEvaluation{
				Ticker: u.Ticker,
				Name:   u.Name,
				ISIN:   u.ISIN,
				Strike: u.Strike,
			}
			ue.Prices = s.resolver.Resolve(u, product, lc, now, useTradeDateInitial)
			ue.Performance = performance(ue.Prices)

			evaluated[idx] = ue
		}(i)
	}
	wg.Wait()

	return evaluated
}

// performance computes percent change vs the initial price. A zero initial or
// a non-authoritative evaluation price means there is nothing to measure.
func performance(prices ResolvedPrices) *float64 {
	if prices.Initial.Price <= 0 {
		return nil
	}
	if !prices.Evaluation.Source.Authoritative() || prices.Evaluation.Price <= 0 {
		return nil
	}

	perf := (prices.Evaluation.Price/prices.Initial.Price - 1) * 100
	return &perf
}

// flagOrionGaps marks the result indeterminate when barrier scans or payoff
// figures could not be produced.
func (s *Service) flagOrionGaps(result *EvaluationResult) {
	for _, u := range result.Orion.Underlyings {
		if u.BarrierScan.Outcome == ScanIndeterminate {
			result.Indeterminate = true
			result.IndeterminateReasons = append(result.IndeterminateReasons,
				fmt.Sprintf("%s: barrier scan %s", u.Ticker, u.BarrierScan.Reason))
		}
		if u.Performance == nil {
			result.Indeterminate = true
			result.IndeterminateReasons = append(result.IndeterminateReasons,
				fmt.Sprintf("%s: no authoritative evaluation price", u.Ticker))
		}
	}
	if result.Orion.CapitalReturn == nil {
		result.Indeterminate = true
		result.IndeterminateReasons = append(result.IndeterminateReasons, "no capital return estimate")
	}
}

// flagParticipationGaps marks the result indeterminate when the basket or
// redemption estimate could not be produced.
func (s *Service) flagParticipationGaps(result *EvaluationResult) {
	for _, u := range result.Underlyings {
		if u.Performance == nil {
			result.Indeterminate = true
			result.IndeterminateReasons = append(result.IndeterminateReasons,
				fmt.Sprintf("%s: no authoritative evaluation price", u.Ticker))
		}
	}
	if result.Participation.FinalRedemption == nil {
		result.Indeterminate = true
		result.IndeterminateReasons = append(result.IndeterminateReasons, "no redemption estimate")
	}
}

// displayName generates the human-readable product label used by reports.
func displayName(p *products.Product) string {
	if p.Name != "" {
		return p.Name
	}

	var tickers []string
	for _, u := range p.Underlyings {
		tickers = append(tickers, u.Ticker)
	}
	basket := strings.Join(tickers, " / ")
	if basket == "" {
		basket = "unnamed basket"
	}

	label := "Structured Note"
	switch p.Family {
	case domain.FamilyOrion:
		label = "Orion Note"
	case domain.FamilyParticipation:
		label = "Participation Note"
	}

	if maturity := p.EffectiveMaturity(); maturity != nil {
		return fmt.Sprintf("%s on %s due %s", label, basket, maturity.UTC().Format("Jan 2006"))
	}
	return fmt.Sprintf("%s on %s", label, basket)
}
