package httpapi

import (
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/cart"
	"github.com/09junaid/full-ecommerce/internal/order"

	"github.com/go-chi/chi/v5"
)

func buyerFrom(r *http.Request) order.Buyer {
	id := identity(r)
	return order.Buyer{ID: id.UserID, Name: id.Name, Email: id.Email}
}

// createPayment starts a checkout: the cart snapshot and idempotency key come
// from the client, the charge amount never does.
func (h Handlers) createPayment(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CartItems      []cart.Item `json:"cartItems"`
		IdempotencyKey string      `json:"idempotencyKey"`
	}
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	clientSecret, err := h.Orders.StartCheckout(r.Context(), buyerFrom(r), input.CartItems, input.IdempotencyKey)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{"clientSecret": clientSecret})
}

func (h Handlers) completeOrder(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if input.PaymentIntentID == "" {
		fail(w, http.StatusBadRequest, "paymentIntentId is required")
		return
	}

	o, err := h.Orders.CompleteCheckout(r.Context(), buyerFrom(r), input.PaymentIntentID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusCreated, envelope{
		"message": "Order placed successfully",
		"order":   o,
	})
}

func (h Handlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListByUser(r.Context(), identity(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"orders": orders})
}

func (h Handlers) listAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	ok(w, http.StatusOK, envelope{"orders": orders})
}

func (h Handlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status string `json:"status"`
	}
	if err := decode(r, &input); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "orderId"), input.Status)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok(w, http.StatusOK, envelope{"updatedOrder": o})
}
