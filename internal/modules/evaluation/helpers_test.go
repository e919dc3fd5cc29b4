package evaluation

import (
	"sort"
	"time"

	"notewatch/internal/modules/marketdata"
	"notewatch/internal/modules/products"
)

// fakeHistory serves canned historical series and exact-date records.
type fakeHistory struct {
	docs   map[string]*marketdata.HistoricalDocument
	onDate map[string]*marketdata.HistoricalPriceRecord // "fullTicker|YYYY-MM-DD"
}

func (f *fakeHistory) FindByFullTicker(fullTicker string) (*marketdata.HistoricalDocument, error) {
	if f.docs == nil {
		return nil, nil
	}
	return f.docs[fullTicker], nil
}

func (f *fakeHistory) GetOnDate(fullTicker string, date time.Time) (*marketdata.HistoricalPriceRecord, error) {
	if f.onDate == nil {
		return nil, nil
	}
	return f.onDate[fullTicker+"|"+date.UTC().Format("2006-01-02")], nil
}

// fakeQuotes serves canned current quotes by raw ticker.
type fakeQuotes struct {
	quotes map[string]*marketdata.CurrentQuote
}

func (f *fakeQuotes) LookupCurrent(ticker string) (*marketdata.CurrentQuote, error) {
	if f.quotes == nil {
		return nil, nil
	}
	return f.quotes[ticker], nil
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := mustDate(s)
	return &t
}

func fptr(v float64) *float64 {
	return &v
}

func series(fullTicker string, closes map[string]float64) *marketdata.HistoricalDocument {
	dates := make([]string, 0, len(closes))
	for date := range closes {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	doc := &marketdata.HistoricalDocument{FullTicker: fullTicker}
	for _, date := range dates {
		doc.History = append(doc.History, marketdata.HistoricalPriceRecord{Date: date, Close: closes[date]})
	}
	return doc
}

func barrierProduct(strike float64, params map[string]interface{}) *products.Product {
	return &products.Product{
		ID:           "orion-1",
		Family:       "orion",
		TradeDate:    datePtr("2023-01-10"),
		MaturityDate: datePtr("2026-01-10"),
		Underlyings: []products.Underlying{
			{Ticker: "AAPL", Strike: strike},
		},
		StructureParams: params,
	}
}
