package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HistoryRepository provides access to cached historical price series.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// FindByFullTicker returns the complete series for a full ticker, oldest
// record first. Returns nil, nil when no series is cached (not an error).
func (r *HistoryRepository) FindByFullTicker(fullTicker string) (*HistoricalDocument, error) {
	records, err := r.scanRange(fullTicker, "", "")
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	return &HistoricalDocument{FullTicker: fullTicker, History: records}, nil
}

// GetHistoricalData returns records in [from, to] inclusive.
// Unknown tickers return an empty slice, never an error - the evaluation
// engine's no-throw contract depends on this.
func (r *HistoryRepository) GetHistoricalData(fullTicker string, from, to time.Time) ([]HistoricalPriceRecord, error) {
	fromStr := from.UTC().Format("2006-01-02")
	toStr := to.UTC().Format("2006-01-02")
	return r.scanRange(fullTicker, fromStr, toStr)
}

// GetOnDate returns the record for an exact calendar date, nil, nil on miss.
func (r *HistoryRepository) GetOnDate(fullTicker string, date time.Time) (*HistoricalPriceRecord, error) {
	dateStr := date.UTC().Format("2006-01-02")

	var record HistoricalPriceRecord
	var adjusted sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT date, close, adjusted_close
		FROM historical_prices
		WHERE full_ticker = ? AND date = ?
	`, fullTicker, dateStr).Scan(&record.Date, &record.Close, &adjusted)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query price on %s for %s: %w", dateStr, fullTicker, err)
	}

	if adjusted.Valid {
		record.AdjustedClose = &adjusted.Float64
	}
	return &record, nil
}

func (r *HistoryRepository) scanRange(fullTicker, fromStr, toStr string) ([]HistoricalPriceRecord, error) {
	query := `
		SELECT date, close, adjusted_close
		FROM historical_prices
		WHERE full_ticker = ?
	`
	args := []interface{}{fullTicker}
	if fromStr != "" {
		query += " AND date >= ?"
		args = append(args, fromStr)
	}
	if toStr != "" {
		query += " AND date <= ?"
		args = append(args, toStr)
	}
	query += " ORDER BY date ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical prices for %s: %w", fullTicker, err)
	}
	defer rows.Close()

	records := []HistoricalPriceRecord{}
	for rows.Next() {
		var record HistoricalPriceRecord
		var adjusted sql.NullFloat64
		if err := rows.Scan(&record.Date, &record.Close, &adjusted); err != nil {
			return nil, fmt.Errorf("failed to scan historical price: %w", err)
		}
		if adjusted.Valid {
			record.AdjustedClose = &adjusted.Float64
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating historical prices: %w", err)
	}

	return records, nil
}

// Sync inserts or replaces a batch of records for a full ticker in a single
// transaction.
func (r *HistoryRepository) Sync(fullTicker string, records []HistoricalPriceRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be no-op if Commit succeeds

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO historical_prices (full_ticker, date, close, adjusted_close)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		adjusted := sql.NullFloat64{}
		if record.AdjustedClose != nil {
			adjusted.Float64 = *record.AdjustedClose
			adjusted.Valid = true
		}

		if _, err := stmt.Exec(fullTicker, record.Date, record.Close, adjusted); err != nil {
			return fmt.Errorf("failed to insert price for %s on %s: %w", fullTicker, record.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().
		Str("full_ticker", fullTicker).
		Int("count", len(records)).
		Msg("Synced historical prices")

	return nil
}

// ListTickers returns all full tickers with cached series.
func (r *HistoryRepository) ListTickers() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT full_ticker FROM historical_prices ORDER BY full_ticker")
	if err != nil {
		return nil, fmt.Errorf("failed to query tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickers: %w", err)
	}

	return tickers, nil
}
