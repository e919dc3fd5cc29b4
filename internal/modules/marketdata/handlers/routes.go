package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/marketdata", func(r chi.Router) {
		r.Get("/tickers", h.HandleListTickers)
		r.Get("/history/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetHistory(w, r, chi.URLParam(r, "ticker"))
		})
		r.Get("/quote/{ticker}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetQuote(w, r, chi.URLParam(r, "ticker"))
		})
	})
}
