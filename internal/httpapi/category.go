package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type categoryInput struct {
	Name string `json:"name"`
}

func (h Handlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var input categoryInput
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Categories.Create(r.Context(), input.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, envelope{
		"message":  "Category created",
		"category": c,
	})
}

func (h Handlers) updateCategory(w http.ResponseWriter, r *http.Request) {
	var input categoryInput
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Categories.Update(r.Context(), chi.URLParam(r, "id"), input.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{
		"message":  "Category updated",
		"category": c,
	})
}

func (h Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Categories.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"categories": categories})
}

func (h Handlers) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.Categories.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"category": c})
}

func (h Handlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.Categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Category deleted"})
}
