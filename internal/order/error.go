package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrMissingCheckoutKey = errors.New("idempotency key is required")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// Checkout stages, used to report where an attempt failed.
const (
	StageIntent       = "intent"
	StageConfirmation = "confirmation"
	StagePersist      = "order-persist"
)

// CheckoutError wraps a failure in one of the checkout stages. StagePersist
// means the payment was already captured: the order is left awaiting payment
// for the reconciler rather than lost.
type CheckoutError struct {
	Stage string
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed at stage %q: %v", e.Stage, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}
