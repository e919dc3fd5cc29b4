// Package eodhd provides a client for the EOD Historical Data API.
// It supplies live quotes for the evaluation engine and end-of-day series
// for the historical price cache.
package eodhd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/marketdata"
)

// Client for eodhd.com
type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
	log      zerolog.Logger
}

// NewClient creates a new EODHD client
func NewClient(apiToken string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:  "https://eodhd.com/api",
		apiToken: apiToken,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log.With().Str("client", "eodhd").Logger(),
	}
}

// realTimeResponse mirrors the /real-time payload. The API sends "NA" strings
// for unknown tickers, so numeric fields decode via json.Number.
type realTimeResponse struct {
	Code      string      `json:"code"`
	Close     json.Number `json:"close"`
	Timestamp int64       `json:"timestamp"`
}

// GetCurrentPrice fetches the live quote for a full ticker.
// Unknown tickers return nil, nil - the engine treats a miss on one ticker
// variant as routine, not as a failure.
func (c *Client) GetCurrentPrice(fullTicker string) (*marketdata.CurrentQuote, error) {
	endpoint := fmt.Sprintf("%s/real-time/%s?api_token=%s&fmt=json",
		c.baseURL, url.PathEscape(fullTicker), url.QueryEscape(c.apiToken))

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result realTimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	price, err := result.Close.Float64()
	if err != nil || price <= 0 {
		// "NA" close means the ticker variant doesn't trade here
		return nil, nil
	}

	quote := &marketdata.CurrentQuote{
		Price: price,
		Date:  time.Unix(result.Timestamp, 0).UTC(),
	}

	c.log.Debug().
		Str("full_ticker", fullTicker).
		Float64("price", price).
		Msg("Fetched live quote")

	return quote, nil
}

// eodRecord mirrors one row of the /eod payload.
type eodRecord struct {
	Date          string  `json:"date"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
}

// GetHistoricalData fetches the end-of-day series for a full ticker within
// [from, to]. Unknown tickers return an empty slice.
func (c *Client) GetHistoricalData(fullTicker string, from, to time.Time) ([]marketdata.HistoricalPriceRecord, error) {
	endpoint := fmt.Sprintf("%s/eod/%s?api_token=%s&fmt=json&from=%s&to=%s",
		c.baseURL, url.PathEscape(fullTicker), url.QueryEscape(c.apiToken),
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))

	resp, err := c.client.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []marketdata.HistoricalPriceRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var rows []eodRecord
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	records := make([]marketdata.HistoricalPriceRecord, 0, len(rows))
	for _, row := range rows {
		record := marketdata.HistoricalPriceRecord{
			Date:  row.Date,
			Close: row.Close,
		}
		if row.AdjustedClose > 0 {
			adj := row.AdjustedClose
			record.AdjustedClose = &adj
		}
		records = append(records, record)
	}

	c.log.Debug().
		Str("full_ticker", fullTicker).
		Int("count", len(records)).
		Msg("Fetched historical series")

	return records, nil
}
