package evaluation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

func newTestScanner(history HistorySource) *Scanner {
	return NewScanner(history, nil, zerolog.Nop())
}

func TestScanUpperBarrierHit(t *testing.T) {
	p := barrierProduct(100, nil)
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL": series("AAPL", map[string]float64{
			"2023-06-01": 120,
			"2024-02-10": 151,
			"2024-08-01": 130,
		}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanHit, scan.Outcome)
	assert.True(t, scan.Touched())
	assert.Equal(t, 150.0, scan.BarrierPrice)
	assert.Equal(t, "2024-02-10", scan.HitDate)
	assert.Equal(t, 151.0, scan.HitClose)
	assert.Equal(t, 151.0, scan.MaxClose)
	assert.Equal(t, 3, scan.Records)
}

func TestScanUpperBarrierTouchingExactlyCounts(t *testing.T) {
	p := barrierProduct(100, nil)
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL": series("AAPL", map[string]float64{"2024-02-10": 150}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanHit, scan.Outcome)
	assert.Equal(t, "2024-02-10", scan.HitDate)
}

func TestScanUpperBarrierNotHit(t *testing.T) {
	p := barrierProduct(100, nil)
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL": series("AAPL", map[string]float64{
			"2023-06-01": 120,
			"2024-02-10": 149.99,
		}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanNotHit, scan.Outcome)
	assert.False(t, scan.Touched())
	assert.Equal(t, 149.99, scan.MaxClose)
	assert.Equal(t, "2024-02-10", scan.MaxCloseDate)
	assert.Empty(t, scan.HitDate)
}

func TestScanUpperBarrierWindowIsInclusive(t *testing.T) {
	p := barrierProduct(100, nil)
	p.TradeDate = datePtr("2023-01-10")
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL": series("AAPL", map[string]float64{
			"2023-01-09": 200, // day before trade date: out of window
			"2023-01-10": 120, // trade date itself: in window
		}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanNotHit, scan.Outcome)
	assert.Equal(t, 1, scan.Records)
	assert.Equal(t, 120.0, scan.MaxClose)
}

func TestScanUpperBarrierCutoffAtFinalObservation(t *testing.T) {
	p := barrierProduct(100, nil)
	p.FinalObservationDate = datePtr("2024-06-01")
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL": series("AAPL", map[string]float64{
			"2024-05-01": 120,
			"2024-07-01": 180, // after final observation: must not count
		}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanNotHit, scan.Outcome)
	assert.Equal(t, "2024-06-01", scan.WindowEnd)
	assert.Equal(t, 1, scan.Records)
}

func TestScanUpperBarrierCutoffTodayWhileLive(t *testing.T) {
	p := barrierProduct(100, nil)
	p.MaturityDate = datePtr("2030-01-10")

	scan := newTestScanner(&fakeHistory{}).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, "2025-06-01", scan.WindowEnd)
}

func TestScanUpperBarrierIndeterminateWithoutTradeDate(t *testing.T) {
	p := barrierProduct(100, nil)
	p.TradeDate = nil
	p.MaturityDate = nil

	scan := newTestScanner(&fakeHistory{}).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanIndeterminate, scan.Outcome)
	assert.Equal(t, ReasonNoWindow, scan.Reason)
	assert.False(t, scan.Touched())
}

func TestScanUpperBarrierIndeterminateWithoutStrike(t *testing.T) {
	p := barrierProduct(0, nil)

	scan := newTestScanner(&fakeHistory{}).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanIndeterminate, scan.Outcome)
	assert.Equal(t, ReasonNoReference, scan.Reason)
}

func TestScanUpperBarrierIndeterminateWithoutSeries(t *testing.T) {
	p := barrierProduct(100, nil)

	scan := newTestScanner(&fakeHistory{}).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanIndeterminate, scan.Outcome)
	assert.Equal(t, ReasonNoSeries, scan.Reason)
}

func TestScanUpperBarrierIndeterminateWithEmptyWindow(t *testing.T) {
	p := barrierProduct(100, nil)
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL": series("AAPL", map[string]float64{"2022-01-01": 120}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanIndeterminate, scan.Outcome)
	assert.Equal(t, ReasonNoDataInWindow, scan.Reason)
}

func TestScanUpperBarrierRetriesSuffixVariants(t *testing.T) {
	p := barrierProduct(100, nil)
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"AAPL.US": series("AAPL.US", map[string]float64{"2024-02-10": 160}),
	}}

	scan := newTestScanner(history).ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanHit, scan.Outcome)
	assert.Equal(t, "AAPL.US", scan.FullTicker)
}

func TestScanUpperBarrierNormalizesMinorUnitSeries(t *testing.T) {
	p := &products.Product{
		ID:        "orion-gbp",
		Family:    "orion",
		TradeDate: datePtr("2023-01-10"),
		Underlyings: []products.Underlying{
			{Ticker: "BARC.LSE", Strike: 2.50},
		},
	}
	// Series quoted in pence: 400p = 4.00 GBP, above 150% of a 2.50 strike
	history := &fakeHistory{docs: map[string]*marketdata.HistoricalDocument{
		"BARC.LSE": series("BARC.LSE", map[string]float64{"2024-02-10": 400}),
	}}

	scanner := NewScanner(history, penceNormalizer{}, zerolog.Nop())
	scan := scanner.ScanUpperBarrier(p.Underlyings[0], p, 150, mustDate("2025-06-01"))

	assert.Equal(t, ScanHit, scan.Outcome)
	assert.Equal(t, 4.0, scan.HitClose)
}

// penceNormalizer divides everything by 100, standing in for the currency module.
type penceNormalizer struct{}

func (penceNormalizer) NormalizePriceToGBP(price, referencePrice float64, ticker string) float64 {
	return price / 100
}

func (penceNormalizer) NormalizeHistoricalPrices(records []marketdata.HistoricalPriceRecord, referencePrice float64, ticker string) []marketdata.HistoricalPriceRecord {
	out := make([]marketdata.HistoricalPriceRecord, len(records))
	for i, r := range records {
		out[i] = r
		out[i].Close = r.Close / 100
		out[i].AdjustedClose = nil
	}
	return out
}
