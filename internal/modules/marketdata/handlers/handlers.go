// Package handlers provides HTTP handlers for cached market data.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/marketdata"
)

// Handler handles market data HTTP requests
type Handler struct {
	history *marketdata.HistoryRepository
	quotes  *marketdata.QuoteService
	log     zerolog.Logger
}

// NewHandler creates a new market data handler
func NewHandler(history *marketdata.HistoryRepository, quotes *marketdata.QuoteService, log zerolog.Logger) *Handler {
	return &Handler{
		history: history,
		quotes:  quotes,
		log:     log.With().Str("handler", "marketdata").Logger(),
	}
}

// HandleListTickers handles GET /api/marketdata/tickers
func (h *Handler) HandleListTickers(w http.ResponseWriter, r *http.Request) {
	tickers, err := h.history.ListTickers()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list tickers")
		http.Error(w, "Failed to list tickers", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"tickers": tickers,
			"count":   len(tickers),
		},
	})
}

// HandleGetHistory handles GET /api/marketdata/history/{ticker}
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request, fullTicker string) {
	doc, err := h.history.FindByFullTicker(fullTicker)
	if err != nil {
		h.log.Error().Err(err).Str("full_ticker", fullTicker).Msg("Failed to load history")
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if doc == nil {
		http.Error(w, "No historical data for ticker", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": doc})
}

// HandleGetQuote handles GET /api/marketdata/quote/{ticker}
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request, ticker string) {
	quote, err := h.quotes.LookupCurrent(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to look up quote")
		http.Error(w, "Failed to look up quote", http.StatusInternalServerError)
		return
	}
	if quote == nil {
		http.Error(w, "No current price for ticker", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": quote,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
