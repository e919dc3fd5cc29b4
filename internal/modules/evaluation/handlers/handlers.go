// Package handlers provides HTTP handlers for product evaluation operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/modules/evaluation"
	"notewatch/internal/modules/products"
)

// ProductSource is the product lookup contract used by the handlers.
type ProductSource interface {
	GetByID(id string) (*products.Product, error)
	GetAll() ([]products.Product, error)
}

// EvaluatorInterface is the evaluation contract, split out for testing with mocks.
type EvaluatorInterface interface {
	Evaluate(product *products.Product) (*evaluation.EvaluationResult, error)
}

// Handler handles evaluation HTTP requests
type Handler struct {
	productRepo ProductSource
	evaluator   EvaluatorInterface
	log         zerolog.Logger
}

// NewHandler creates a new evaluation handler
func NewHandler(productRepo ProductSource, evaluator EvaluatorInterface, log zerolog.Logger) *Handler {
	return &Handler{
		productRepo: productRepo,
		evaluator:   evaluator,
		log:         log.With().Str("handler", "evaluation").Logger(),
	}
}

// HandleEvaluateProduct handles POST /api/evaluation/products/{id}
func (h *Handler) HandleEvaluateProduct(w http.ResponseWriter, r *http.Request, id string) {
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

	result, err := h.evaluator.Evaluate(product)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to evaluate product")
		http.Error(w, "Failed to evaluate product", http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// batchEntry is one product's outcome in a batch evaluation response.
type batchEntry struct {
	ProductID string                       `json:"productId"`
	Result    *evaluation.EvaluationResult `json:"result,omitempty"`
	Error     string                       `json:"error,omitempty"`
}

// HandleEvaluateAll handles GET /api/evaluation/products.
// Products are evaluated independently: one product's bad data must never
// block or corrupt another's result.
func (h *Handler) HandleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.productRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load products")
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	entries := make([]batchEntry, 0, len(all))
	for i := range all {
		product := all[i]
		entry := batchEntry{ProductID: product.ID}

		result, err := h.evaluator.Evaluate(&product)
		if err != nil {
			h.log.Warn().Err(err).Str("id", product.ID).Msg("Product evaluation failed, continuing batch")
			entry.Error = err.Error()
		} else {
			entry.Result = result
		}
		entries = append(entries, entry)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"evaluations": entries,
			"count":       len(entries),
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
