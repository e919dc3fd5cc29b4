package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all evaluation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluation", func(r chi.Router) {
		r.Get("/products", h.HandleEvaluateAll)
		r.Post("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			h.HandleEvaluateProduct(w, r, id)
		})
	})
}
