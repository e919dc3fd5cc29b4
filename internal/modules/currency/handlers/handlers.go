// Package handlers provides HTTP handlers for currency operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/currency"
)

// Handler handles currency HTTP requests
type Handler struct {
	exchange *currency.ExchangeService
	log      zerolog.Logger
}

// NewHandler creates a new currency handler
func NewHandler(exchange *currency.ExchangeService, log zerolog.Logger) *Handler {
	return &Handler{
		exchange: exchange,
		log:      log.With().Str("handler", "currency").Logger(),
	}
}

// ConvertRequest represents a request to convert currency
type ConvertRequest struct {
	FromCurrency string  `json:"from_currency"`
	ToCurrency   string  `json:"to_currency"`
	Amount       float64 `json:"amount"`
}

// HandleConvert handles POST /api/currency/convert
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FromCurrency == "" || req.ToCurrency == "" {
		http.Error(w, "from_currency and to_currency are required", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "amount must be greater than 0", http.StatusBadRequest)
		return
	}

	converted, err := h.exchange.Convert(req.Amount, req.FromCurrency, req.ToCurrency)
	if err != nil {
		h.log.Warn().Err(err).
			Str("from", req.FromCurrency).
			Str("to", req.ToCurrency).
			Msg("Conversion failed")
		http.Error(w, "Exchange rate not available", http.StatusBadGateway)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"from_currency": req.FromCurrency,
			"to_currency":   req.ToCurrency,
			"from_amount":   req.Amount,
			"to_amount":     converted,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetAvailableCurrencies handles GET /api/currency/available-currencies
func (h *Handler) HandleGetAvailableCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies := []map[string]interface{}{
		{"code": "EUR", "name": "Euro", "symbol": "€"},
		{"code": "USD", "name": "US Dollar", "symbol": "$"},
		{"code": "GBP", "name": "British Pound", "symbol": "£"},
		{"code": "GBX", "name": "British Pence", "symbol": "p"},
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"currencies": currencies,
			"count":      len(currencies),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
