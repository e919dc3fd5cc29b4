package marketdata

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE historical_prices (
			full_ticker TEXT NOT NULL,
			date TEXT NOT NULL,
			close REAL NOT NULL,
			adjusted_close REAL,
			PRIMARY KEY (full_ticker, date)
		)
	`)
	require.NoError(t, err)

	return db
}

func TestHistoryRepositorySyncAndFind(t *testing.T) {
	db := setupHistoryDB(t)
	defer db.Close()
	repo := NewHistoryRepository(db, zerolog.Nop())

	adjusted := 148.0
	err := repo.Sync("AAPL.US", []HistoricalPriceRecord{
		{Date: "2024-01-02", Close: 150, AdjustedClose: &adjusted},
		{Date: "2024-01-03", Close: 152},
	})
	require.NoError(t, err)

	doc, err := repo.FindByFullTicker("AAPL.US")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "AAPL.US", doc.FullTicker)
	require.Len(t, doc.History, 2)
	assert.Equal(t, "2024-01-02", doc.History[0].Date)
	require.NotNil(t, doc.History[0].AdjustedClose)
	assert.Equal(t, 148.0, *doc.History[0].AdjustedClose)
	assert.Equal(t, 148.0, doc.History[0].EffectiveClose())
	assert.Nil(t, doc.History[1].AdjustedClose)
	assert.Equal(t, 152.0, doc.History[1].EffectiveClose())
}

func TestHistoryRepositoryFindUnknownTickerIsNil(t *testing.T) {
	db := setupHistoryDB(t)
	defer db.Close()
	repo := NewHistoryRepository(db, zerolog.Nop())

	doc, err := repo.FindByFullTicker("GHOST.US")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestHistoryRepositorySyncReplacesExisting(t *testing.T) {
	db := setupHistoryDB(t)
	defer db.Close()
	repo := NewHistoryRepository(db, zerolog.Nop())

	require.NoError(t, repo.Sync("AAPL.US", []HistoricalPriceRecord{{Date: "2024-01-02", Close: 150}}))
	require.NoError(t, repo.Sync("AAPL.US", []HistoricalPriceRecord{{Date: "2024-01-02", Close: 151}}))

	doc, err := repo.FindByFullTicker("AAPL.US")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Len(t, doc.History, 1)
	assert.Equal(t, 151.0, doc.History[0].Close)
}

func TestHistoryRepositoryGetHistoricalDataRange(t *testing.T) {
	db := setupHistoryDB(t)
	defer db.Close()
	repo := NewHistoryRepository(db, zerolog.Nop())

	require.NoError(t, repo.Sync("AAPL.US", []HistoricalPriceRecord{
		{Date: "2024-01-02", Close: 150},
		{Date: "2024-01-03", Close: 152},
		{Date: "2024-01-04", Close: 154},
	}))

	records, err := repo.GetHistoricalData("AAPL.US",
		mustParseDate(t, "2024-01-03"), mustParseDate(t, "2024-01-04"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-03", records[0].Date)
	assert.Equal(t, "2024-01-04", records[1].Date)

	// Unknown ticker: empty slice, never an error
	records, err = repo.GetHistoricalData("GHOST.US",
		mustParseDate(t, "2024-01-01"), mustParseDate(t, "2024-12-31"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryRepositoryGetOnDate(t *testing.T) {
	db := setupHistoryDB(t)
	defer db.Close()
	repo := NewHistoryRepository(db, zerolog.Nop())

	require.NoError(t, repo.Sync("AAPL.US", []HistoricalPriceRecord{{Date: "2024-01-02", Close: 150}}))

	record, err := repo.GetOnDate("AAPL.US", mustParseDate(t, "2024-01-02"))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 150.0, record.Close)

	record, err = repo.GetOnDate("AAPL.US", mustParseDate(t, "2024-01-05"))
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestHistoryRepositoryListTickers(t *testing.T) {
	db := setupHistoryDB(t)
	defer db.Close()
	repo := NewHistoryRepository(db, zerolog.Nop())

	require.NoError(t, repo.Sync("MSFT.US", []HistoricalPriceRecord{{Date: "2024-01-02", Close: 400}}))
	require.NoError(t, repo.Sync("AAPL.US", []HistoricalPriceRecord{{Date: "2024-01-02", Close: 150}}))

	tickers, err := repo.ListTickers()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL.US", "MSFT.US"}, tickers)
}
