package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

// HistoryProvider fetches end-of-day series from a market data provider.
type HistoryProvider interface {
	GetHistoricalData(fullTicker string, from, to time.Time) ([]marketdata.HistoricalPriceRecord, error)
}

// HistorySyncJob keeps the historical price cache current for every
// underlying referenced by a stored product. Each run refreshes cached
// series incrementally and bootstraps series for new underlyings from the
// earliest trade date that references them.
type HistorySyncJob struct {
	products *products.Repository
	history  *marketdata.HistoryRepository
	provider HistoryProvider
	now      func() time.Time
	log      zerolog.Logger
}

// NewHistorySyncJob creates a new history sync job.
func NewHistorySyncJob(
	productsRepo *products.Repository,
	history *marketdata.HistoryRepository,
	provider HistoryProvider,
	log zerolog.Logger,
) *HistorySyncJob {
	return &HistorySyncJob{
		products: productsRepo,
		history:  history,
		provider: provider,
		now:      time.Now,
		log:      log.With().Str("job", "history_sync").Logger(),
	}
}

// Name returns the job name for scheduling and logging.
func (j *HistorySyncJob) Name() string {
	return "history_sync"
}

// Run syncs the series for every referenced underlying. Per-ticker failures
// are logged and skipped so one dead ticker cannot starve the rest.
func (j *HistorySyncJob) Run() error {
	all, err := j.products.GetAll()
	if err != nil {
		return err
	}

	starts := j.collectTickers(all)
	if len(starts) == 0 {
		j.log.Debug().Msg("No underlyings to sync")
		return nil
	}

	synced, failed := 0, 0
	for ticker, from := range starts {
		if err := j.syncTicker(ticker, from); err != nil {
			j.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to sync historical series")
			failed++
			continue
		}
		synced++
	}

	j.log.Info().
		Int("synced", synced).
		Int("failed", failed).
		Msg("History sync completed")

	return nil
}

// collectTickers maps each referenced ticker to the earliest effective trade
// date of any product that holds it. Products without a trade date cannot
// anchor a series and are skipped.
func (j *HistorySyncJob) collectTickers(all []products.Product) map[string]time.Time {
	starts := make(map[string]time.Time)
	for i := range all {
		tradeDate := all[i].EffectiveTradeDate()
		if tradeDate == nil {
			continue
		}
		for _, u := range all[i].Underlyings {
			if u.Ticker == "" {
				continue
			}
			if existing, ok := starts[u.Ticker]; !ok || tradeDate.Before(existing) {
				starts[u.Ticker] = *tradeDate
			}
		}
	}
	return starts
}

func (j *HistorySyncJob) syncTicker(ticker string, from time.Time) error {
	to := j.now().UTC()

	// An already-cached variant pins the full ticker and lets the fetch
	// start from the last cached date instead of the full range.
	fullTicker, lastDate, err := j.cachedVariant(ticker)
	if err != nil {
		return err
	}
	if fullTicker != "" {
		if lastDate.After(from) {
			from = lastDate
		}
		records, err := j.provider.GetHistoricalData(fullTicker, from, to)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return j.history.Sync(fullTicker, records)
	}

	// New ticker: probe the variant list until the provider returns data.
	for _, variant := range marketdata.TickerVariants(ticker, marketdata.LookbackSuffixes) {
		records, err := j.provider.GetHistoricalData(variant, from, to)
		if err != nil {
			j.log.Debug().Err(err).Str("full_ticker", variant).Msg("Provider miss on variant")
			continue
		}
		if len(records) == 0 {
			continue
		}
		return j.history.Sync(variant, records)
	}

	j.log.Warn().Str("ticker", ticker).Msg("No provider data on any ticker variant")
	return nil
}

// cachedVariant returns the first ticker variant with a cached series and
// the date of its newest record. Returns "" when nothing is cached yet.
func (j *HistorySyncJob) cachedVariant(ticker string) (string, time.Time, error) {
	for _, variant := range marketdata.TickerVariants(ticker, marketdata.LookbackSuffixes) {
		doc, err := j.history.FindByFullTicker(variant)
		if err != nil {
			return "", time.Time{}, err
		}
		if doc == nil || len(doc.History) == 0 {
			continue
		}
		last := doc.History[len(doc.History)-1]
		lastDate, err := time.Parse("2006-01-02", last.Date)
		if err != nil {
			continue
		}
		return variant, lastDate, nil
	}
	return "", time.Time{}, nil
}
