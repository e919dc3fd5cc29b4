// Package handlers provides HTTP handlers for product chart data.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/charts"
	"notewatch/internal/modules/products"
)

// ProductSource is the product lookup contract used by the handlers.
type ProductSource interface {
	GetByID(id string) (*products.Product, error)
}

// ChartSource builds chart series for a product's underlyings.
type ChartSource interface {
	GetProductCharts(product *products.Product, now time.Time) ([]charts.UnderlyingChart, error)
}

// Handler handles chart HTTP requests
type Handler struct {
	productRepo ProductSource
	charts      ChartSource
	log         zerolog.Logger
}

// NewHandler creates a new charts handler
func NewHandler(productRepo ProductSource, chartSource ChartSource, log zerolog.Logger) *Handler {
	return &Handler{
		productRepo: productRepo,
		charts:      chartSource,
		log:         log.With().Str("handler", "charts").Logger(),
	}
}

// HandleGetProductCharts handles GET /api/charts/products/{id}
func (h *Handler) HandleGetProductCharts(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.productRepo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to load product")
		http.Error(w, "Failed to load product", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	series, err := h.charts.GetProductCharts(product, time.Now().UTC())
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to build product charts")
		http.Error(w, "Failed to build product charts", http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"charts": series,
			"count":  len(series),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
