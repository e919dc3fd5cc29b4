// Package handlers provides HTTP handlers for product document operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/domain"
	"notewatch/internal/modules/products"
)

// Handler handles product HTTP requests
type Handler struct {
	repo *products.Repository
	log  zerolog.Logger
}

// NewHandler creates a new products handler
func NewHandler(repo *products.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "products").Logger(),
	}
}

// HandleList handles GET /api/products
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []products.Product
		err  error
	)

	if family := r.URL.Query().Get("family"); family != "" {
		list, err = h.repo.GetByFamily(domain.ProductFamily(family))
	} else {
		list, err = h.repo.GetAll()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list products")
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"products": list,
			"count":    len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGet handles GET /api/products/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request, id string) {
	product, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get product")
		http.Error(w, "Failed to get product", http.StatusInternalServerError)
		return
	}
	if product == nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": product})
}

// HandleSave handles PUT /api/products/{id}
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request, id string) {
	var product products.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		http.Error(w, "Invalid product document", http.StatusBadRequest)
		return
	}
	product.ID = id

	if err := h.repo.Save(&product); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to save product")
		http.Error(w, "Failed to save product", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": product})
}

// HandleDelete handles DELETE /api/products/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.Delete(id); err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete product")
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
