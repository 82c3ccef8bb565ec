package httpapi

import (
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/cart"

	"github.com/go-chi/chi/v5"
)

func (h Handlers) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Load(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"cart": c, "total": c.Total()})
}

func (h Handlers) addCartItem(w http.ResponseWriter, r *http.Request) {
	var item cart.Item
	if err := decode(r, &item); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if item.ProductID == "" {
		fail(w, http.StatusBadRequest, "productId is required")
		return
	}

	userID := identity(r).UserID
	c, err := h.Carts.Load(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c.Add(item)
	if err := h.Carts.Save(r.Context(), userID, c); err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{"message": "Item added", "cart": c})
}

func (h Handlers) removeCartItem(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	c, err := h.Carts.Load(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if !c.Remove(chi.URLParam(r, "productID")) {
		fail(w, http.StatusNotFound, "Item not in cart")
		return
	}
	if err := h.Carts.Save(r.Context(), userID, c); err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{"message": "Item removed", "cart": c})
}

func (h Handlers) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Carts.Clear(r.Context(), identity(r).UserID); err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"message": "Cart cleared"})
}
