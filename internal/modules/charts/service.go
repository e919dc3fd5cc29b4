// Package charts provides chart-ready figures for structured products.
package charts

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/domain"
	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

// ChartDataPoint represents a single point on a chart
type ChartDataPoint struct {
	Time  string  `json:"time"` // YYYY-MM-DD format
	Value float64 `json:"value"`
}

// ReferenceLevel is a horizontal line on a chart: the strike or a barrier.
// Levels are derived from the contractual strike, the same reference the
// barrier scanner compares against - the chart must never disagree with the
// payoff math about where a barrier sits.
type ReferenceLevel struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// UnderlyingChart is the chart payload for one underlying of a product.
type UnderlyingChart struct {
	Ticker string           `json:"ticker"`
	Prices []ChartDataPoint `json:"prices"`
	Levels []ReferenceLevel `json:"levels"`
}

// HistorySource is the chart service's port to cached historical series.
type HistorySource interface {
	FindByFullTicker(fullTicker string) (*marketdata.HistoricalDocument, error)
}

// PriceNormalizer rebases minor-unit quoted closes before charting.
type PriceNormalizer interface {
	NormalizeHistoricalPrices(records []marketdata.HistoricalPriceRecord, referencePrice float64, ticker string) []marketdata.HistoricalPriceRecord
}

// Service provides chart data operations
type Service struct {
	history    HistorySource
	normalizer PriceNormalizer
	log        zerolog.Logger
}

// NewService creates a new charts service
func NewService(history HistorySource, normalizer PriceNormalizer, log zerolog.Logger) *Service {
	return &Service{
		history:    history,
		normalizer: normalizer,
		log:        log.With().Str("service", "charts").Logger(),
	}
}

// GetProductCharts returns the price path of every underlying over the
// product window, with strike and barrier levels attached.
func (s *Service) GetProductCharts(product *products.Product, now time.Time) ([]UnderlyingChart, error) {
	start := product.EffectiveTradeDate()
	if start == nil {
		return nil, fmt.Errorf("product %s has no trade date", product.ID)
	}
	startStr := start.UTC().Format("2006-01-02")
	endStr := now.UTC().Format("2006-01-02")

	levels := s.referenceLevels(product)

	var result []UnderlyingChart
	for _, u := range product.Underlyings {
		chart := UnderlyingChart{Ticker: u.Ticker, Prices: []ChartDataPoint{}}

		for _, level := range levels {
			chart.Levels = append(chart.Levels, ReferenceLevel{
				Label: level.Label,
				Value: u.Strike * level.Value / 100.0,
			})
		}
		chart.Levels = append([]ReferenceLevel{{Label: "strike", Value: u.Strike}}, chart.Levels...)

		doc := s.findSeries(u.Ticker)
		if doc == nil {
			// No data is an empty chart, not an error - reports render the
			// levels without a price path
			s.log.Debug().Str("ticker", u.Ticker).Msg("No historical series for chart")
			result = append(result, chart)
			continue
		}

		history := doc.History
		if s.normalizer != nil {
			history = s.normalizer.NormalizeHistoricalPrices(history, u.Strike, doc.FullTicker)
		}

		for _, record := range history {
			if record.Date < startStr || record.Date > endStr {
				continue
			}
			chart.Prices = append(chart.Prices, ChartDataPoint{
				Time:  record.Date,
				Value: record.EffectiveClose(),
			})
		}

		result = append(result, chart)
	}

	return result, nil
}

// referenceLevels extracts the percent-of-strike lines for the product family.
func (s *Service) referenceLevels(product *products.Product) []ReferenceLevel {
	switch product.Family {
	case domain.FamilyOrion:
		params := product.ExtractOrionParams()
		return []ReferenceLevel{
			{Label: "upper_barrier", Value: params.UpperBarrier},
			{Label: "lower_barrier", Value: params.LowerBarrier},
		}
	case domain.FamilyParticipation:
		params := product.ExtractParticipationParams()
		if params.ProtectionLevel != nil {
			return []ReferenceLevel{{Label: "protection", Value: *params.ProtectionLevel}}
		}
	}
	return nil
}

// findSeries resolves the chart series with the same variant retry the
// barrier scanner uses, so both always draw from the same data.
func (s *Service) findSeries(ticker string) *marketdata.HistoricalDocument {
	for _, variant := range marketdata.TickerVariants(ticker, marketdata.LookbackSuffixes) {
		doc, err := s.history.FindByFullTicker(variant)
		if err != nil {
			s.log.Warn().Err(err).Str("full_ticker", variant).Msg("Series lookup failed, trying next variant")
			continue
		}
		if doc != nil && len(doc.History) > 0 {
			return doc
		}
	}
	return nil
}
