package evaluation

import (
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/domain"
	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

// Resolver resolves an underlying's reference and evaluation prices from the
// prioritized source hierarchy. Every tier failure - lookup error or plain
// miss - degrades to the next tier; resolution never returns an error.
type Resolver struct {
	history    HistorySource
	quotes     QuoteSource
	normalizer PriceNormalizer
	log        zerolog.Logger
}

// NewResolver creates a new price resolver
func NewResolver(history HistorySource, quotes QuoteSource, normalizer PriceNormalizer, log zerolog.Logger) *Resolver {
	return &Resolver{
		history:    history,
		quotes:     quotes,
		normalizer: normalizer,
		log:        log.With().Str("service", "price_resolver").Logger(),
	}
}

// Resolve populates the full price set for one underlying.
// useTradeDateInitial selects the participation-note convention (trade-date
// price with strike fallback as the initial); barrier notes measure against
// the contractual strike directly.
func (r *Resolver) Resolve(u products.Underlying, p *products.Product, lc Lifecycle, now time.Time, useTradeDateInitial bool) ResolvedPrices {
	resolved := ResolvedPrices{}

	resolved.TradeDate = r.tradeDatePrice(u, p)
	resolved.Redemption = r.redemptionPrice(u, lc)
	resolved.FinalObservation = r.finalObservationPrice(u, p, lc)
	resolved.Live = r.livePrice(u, now)

	if useTradeDateInitial && resolved.TradeDate != nil {
		resolved.Initial = *resolved.TradeDate
	} else {
		resolved.Initial = domain.PriceQuote{
			Price:  u.Strike,
			Source: domain.SourceStrikeFallback,
		}
	}

	resolved.Evaluation = r.selectEvaluationPrice(u, lc, resolved)
	return resolved
}

// tradeDatePrice queries the historical series for the exact trade date,
// falling back to the contractual strike.
func (r *Resolver) tradeDatePrice(u products.Underlying, p *products.Product) *domain.PriceQuote {
	tradeDate := p.EffectiveTradeDate()
	if tradeDate != nil {
		if record := r.lookupOnDate(u, *tradeDate); record != nil {
			return &domain.PriceQuote{
				Price:  r.normalize(record.EffectiveClose(), u),
				Date:   *tradeDate,
				Source: domain.SourceMarketDataCache,
			}
		}
	}

	if u.Strike > 0 {
		quote := &domain.PriceQuote{Price: u.Strike, Source: domain.SourceStrikeFallback}
		if tradeDate != nil {
			quote.Date = *tradeDate
		}
		return quote
	}
	return nil
}

// redemptionPrice queries the series for the lifecycle-determined redemption
// date, falling back to the last known cached price.
func (r *Resolver) redemptionPrice(u products.Underlying, lc Lifecycle) *domain.PriceQuote {
	if lc.RedemptionDate == nil {
		return nil
	}

	if record := r.lookupOnDate(u, *lc.RedemptionDate); record != nil {
		return &domain.PriceQuote{
			Price:  r.normalize(record.EffectiveClose(), u),
			Date:   *lc.RedemptionDate,
			Source: redemptionSource(lc.RedemptionKind),
		}
	}

	if price, ok := u.CachedPrice(); ok && price > 0 {
		quote := &domain.PriceQuote{
			Price:  r.normalize(price, u),
			Date:   *lc.RedemptionDate,
			Source: domain.SourceFallbackCurrentPrice,
		}
		r.log.Debug().
			Str("ticker", u.Ticker).
			Time("redemption_date", *lc.RedemptionDate).
			Msg("No close on redemption date, using last known price")
		return quote
	}

	return nil
}

func redemptionSource(kind domain.RedemptionKind) domain.PriceSource {
	switch kind {
	case domain.RedemptionFinalObservation:
		return domain.SourceFinalObservation
	case domain.RedemptionIssuerCall:
		return domain.SourceIssuerCall
	default:
		return domain.SourceRedemption
	}
}

// finalObservationPrice queries the series for the final observation date once
// that date has passed. Barrier notes only.
func (r *Resolver) finalObservationPrice(u products.Underlying, p *products.Product, lc Lifecycle) *domain.PriceQuote {
	if !lc.FinalObservationPassed {
		return nil
	}
	finalObs := p.EffectiveFinalObservation()
	if finalObs == nil {
		return nil
	}

	record := r.lookupOnDate(u, *finalObs)
	if record == nil {
		return nil
	}
	return &domain.PriceQuote{
		Price:  r.normalize(record.EffectiveClose(), u),
		Date:   *finalObs,
		Source: domain.SourceFinalObservation,
	}
}

// livePrice reuses the cached price when it is dated today (UTC calendar
// comparison), otherwise asks the quote source. A full miss leaves the price
// unresolved.
func (r *Resolver) livePrice(u products.Underlying, now time.Time) *domain.PriceQuote {
	today := now.UTC().Format("2006-01-02")

	if cachedDate, ok := u.CachedPriceDate(); ok && cachedDate == today {
		if price, ok := u.CachedPrice(); ok && price > 0 {
			return &domain.PriceQuote{
				Price:  r.normalize(price, u),
				Date:   stripTime(now),
				Source: domain.SourceLive,
			}
		}
	}

	if r.quotes == nil {
		return nil
	}

	quote, err := r.quotes.LookupCurrent(u.Ticker)
	if err != nil {
		r.log.Warn().Err(err).Str("ticker", u.Ticker).Msg("Live price lookup failed, treating as miss")
		return nil
	}
	if quote == nil || quote.Price <= 0 {
		return nil
	}

	return &domain.PriceQuote{
		Price:  r.normalize(quote.Price, u),
		Date:   quote.Date,
		Source: domain.SourceLive,
	}
}

// selectEvaluationPrice applies the tier order for performance math:
// redemption price once the product has redeemed, then the final-observation
// price, then the live price, then the initial as a non-authoritative
// placeholder. Absence at one tier cascades, it never errors.
func (r *Resolver) selectEvaluationPrice(u products.Underlying, lc Lifecycle, resolved ResolvedPrices) domain.PriceQuote {
	redeemed := lc.MaturityPassed || lc.IsCalled || lc.FinalObservationPassed

	if redeemed && resolved.Redemption != nil {
		return *resolved.Redemption
	}
	if lc.FinalObservationPassed && resolved.FinalObservation != nil {
		return *resolved.FinalObservation
	}
	if resolved.Live != nil {
		return *resolved.Live
	}

	fallback := domain.PriceQuote{
		Price:  resolved.Initial.Price,
		Date:   resolved.Initial.Date,
		Source: domain.SourceInitialFallback,
	}
	r.log.Debug().
		Str("ticker", u.Ticker).
		Msg("No market price resolved on any tier, falling back to initial")
	return fallback
}

// lookupOnDate queries the history port for an exact calendar date, trying
// the ticker's variant list in order. Series are stored under suffixed full
// tickers, so the bare ticker alone would miss cached data. Lookup errors are
// treated as per-variant misses.
func (r *Resolver) lookupOnDate(u products.Underlying, date time.Time) *marketdata.HistoricalPriceRecord {
	if r.history == nil {
		return nil
	}
	for _, variant := range marketdata.TickerVariants(u.Ticker, marketdata.LookbackSuffixes) {
		record, err := r.history.GetOnDate(variant, date)
		if err != nil {
			r.log.Warn().
				Err(err).
				Str("full_ticker", variant).
				Time("date", date).
				Msg("Historical lookup failed, treating as miss")
			continue
		}
		if record != nil {
			return record
		}
	}
	return nil
}

// normalize rebases a price to major units using the strike as scale hint.
func (r *Resolver) normalize(price float64, u products.Underlying) float64 {
	if r.normalizer == nil {
		return price
	}
	return r.normalizer.NormalizePriceToGBP(price, u.Strike, u.Ticker)
}
