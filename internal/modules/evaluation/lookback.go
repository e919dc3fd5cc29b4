package evaluation

import (
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

// ScanOutcome is the tri-state result of a barrier lookback scan.
// "Barrier not hit" and "we could not tell" are different financial facts;
// callers decide how to treat Indeterminate, the scanner never guesses.
type ScanOutcome string

const (
	ScanHit           ScanOutcome = "hit"
	ScanNotHit        ScanOutcome = "not_hit"
	ScanIndeterminate ScanOutcome = "indeterminate"
)

// Indeterminate reasons.
const (
	ReasonNoWindow       = "no_scan_window"
	ReasonNoReference    = "no_reference_price"
	ReasonNoSeries       = "no_historical_series"
	ReasonNoDataInWindow = "no_data_in_window"
)

// BarrierScan is the outcome of one upper-barrier lookback with its
// diagnostic trail.
type BarrierScan struct {
	Outcome ScanOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`

	FullTicker   string  `json:"fullTicker,omitempty"`
	WindowStart  string  `json:"windowStart,omitempty"`
	WindowEnd    string  `json:"windowEnd,omitempty"`
	BarrierPrice float64 `json:"barrierPrice,omitempty"`

	Records      int     `json:"records"`
	MaxClose     float64 `json:"maxClose,omitempty"`
	MaxCloseDate string  `json:"maxCloseDate,omitempty"`
	HitDate      string  `json:"hitDate,omitempty"`
	HitClose     float64 `json:"hitClose,omitempty"`
}

// Touched collapses the tri-state to the legacy boolean contract:
// indeterminate scans report false. Callers that must distinguish the two
// read Outcome directly.
func (b BarrierScan) Touched() bool {
	return b.Outcome == ScanHit
}

// Scanner walks an underlying's historical path to decide whether the upper
// barrier was ever touched between trade date and the evaluation cutoff.
type Scanner struct {
	history    HistorySource
	normalizer PriceNormalizer
	log        zerolog.Logger
}

// NewScanner creates a new barrier lookback scanner
func NewScanner(history HistorySource, normalizer PriceNormalizer, log zerolog.Logger) *Scanner {
	return &Scanner{
		history:    history,
		normalizer: normalizer,
		log:        log.With().Str("service", "barrier_scanner").Logger(),
	}
}

// ScanUpperBarrier checks whether the underlying's close ever reached
// strike * upperBarrierPct/100 inside the scan window.
//
// The reference level is always the contractual strike, never a traded or
// cached price - charts and reports compare against the same level.
func (s *Scanner) ScanUpperBarrier(u products.Underlying, p *products.Product, upperBarrierPct float64, now time.Time) BarrierScan {
	scan := BarrierScan{Outcome: ScanIndeterminate}

	start := p.EffectiveTradeDate()
	if start == nil {
		scan.Reason = ReasonNoWindow
		return scan
	}
	end := s.cutoffDate(p, now)

	scan.WindowStart = start.UTC().Format("2006-01-02")
	scan.WindowEnd = end.UTC().Format("2006-01-02")

	if u.Strike <= 0 {
		scan.Reason = ReasonNoReference
		s.log.Warn().Str("ticker", u.Ticker).Msg("No reference price for barrier scan")
		return scan
	}

	doc := s.findSeries(u.Ticker)
	if doc == nil {
		scan.Reason = ReasonNoSeries
		s.log.Warn().Str("ticker", u.Ticker).Msg("No historical series for barrier scan")
		return scan
	}
	scan.FullTicker = doc.FullTicker

	// Window filter by calendar-date string, inclusive on both ends
	var window []marketdata.HistoricalPriceRecord
	for _, record := range doc.History {
		if record.Date >= scan.WindowStart && record.Date <= scan.WindowEnd {
			window = append(window, record)
		}
	}
	if len(window) == 0 {
		scan.Reason = ReasonNoDataInWindow
		return scan
	}

	if s.normalizer != nil {
		window = s.normalizer.NormalizeHistoricalPrices(window, u.Strike, doc.FullTicker)
	}

	scan.BarrierPrice = u.Strike * (upperBarrierPct / 100.0)
	scan.Records = len(window)
	scan.Outcome = ScanNotHit

	for _, record := range window {
		close := record.EffectiveClose()
		if close > scan.MaxClose {
			scan.MaxClose = close
			scan.MaxCloseDate = record.Date
		}
		if scan.Outcome == ScanNotHit && close >= scan.BarrierPrice {
			scan.Outcome = ScanHit
			scan.HitDate = record.Date
			scan.HitClose = close
		}
	}

	s.log.Debug().
		Str("ticker", u.Ticker).
		Str("full_ticker", doc.FullTicker).
		Str("window_end", scan.WindowEnd).
		Float64("barrier_price", scan.BarrierPrice).
		Float64("max_close", scan.MaxClose).
		Str("outcome", string(scan.Outcome)).
		Msg("Barrier lookback scan complete")

	return scan
}

// cutoffDate picks the scan-window end: final observation once passed, else
// maturity once passed, else today. Same calendar-date semantics as the
// lifecycle classifier.
func (s *Scanner) cutoffDate(p *products.Product, now time.Time) time.Time {
	today := stripTime(now)

	if finalObs := p.EffectiveFinalObservation(); finalObs != nil && stripTime(*finalObs).Before(today) {
		return *finalObs
	}
	if maturity := p.EffectiveMaturity(); maturity != nil && !stripTime(*maturity).After(today) {
		return *maturity
	}
	return today
}

// findSeries resolves the historical document for a ticker, retrying with
// exchange-suffix variants against the base symbol. Lookup errors count as
// misses for that variant only.
func (s *Scanner) findSeries(ticker string) *marketdata.HistoricalDocument {
	if s.history == nil {
		return nil
	}

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
