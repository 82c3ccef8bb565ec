package httpapi

import (
	"net/http"
	"strconv"

	"github.com/09junaid/full-ecommerce/internal/product"

	"github.com/go-chi/chi/v5"
)

func (h Handlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var input product.CreateInput
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.Products.Create(r.Context(), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, envelope{
		"message": "Product created",
		"product": p,
	})
}

func (h Handlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	var input product.CreateInput
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.Products.Update(r.Context(), chi.URLParam(r, "pid"), input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{
		"message": "Product updated",
		"product": p,
	})
}

func (h Handlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.Delete(r.Context(), chi.URLParam(r, "pid")); err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Product deleted"})
}

func (h Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	var filter *string
	if s := r.URL.Query().Get("filter"); s != "" {
		filter = &s
	}

	var limit, page *int32
	if n := queryInt32(r, "limit"); n != nil {
		limit = n
	}
	if n := queryInt32(r, "page"); n != nil {
		page = n
	}

	products, err := h.Products.List(r.Context(), filter, limit, page)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"products": products})
}

func (h Handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"product": p})
}

func (h Handlers) listProductsByCategory(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.ListByCategorySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"products": products})
}

func queryInt32(r *http.Request, key string) *int32 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil
	}
	v := int32(n)
	return &v
}
