package order

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	// Checkout lifecycle, before fulfilment starts.
	StatusCheckoutPending OrderStatus = "CheckoutPending"
	StatusAwaitingPayment OrderStatus = "AwaitingPayment"

	// Fulfilment lifecycle.
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"

	StatusCancelled      OrderStatus = "Cancelled"
	StatusRefundRequired OrderStatus = "RefundRequired"
)

// transitions is the closed state machine for order statuses. Cancelled is
// reachable from every non-terminal state; Delivered and Cancelled are
// terminal.
var transitions = map[OrderStatus][]OrderStatus{
	StatusCheckoutPending: {StatusAwaitingPayment, StatusCancelled},
	StatusAwaitingPayment: {StatusPending, StatusRefundRequired, StatusCancelled},
	StatusPending:         {StatusProcessing, StatusCancelled},
	StatusProcessing:      {StatusShipped, StatusCancelled},
	StatusShipped:         {StatusDelivered, StatusCancelled},
	StatusRefundRequired:  {StatusCancelled},
	StatusDelivered:       {},
	StatusCancelled:       {},
}

// ParseStatus rejects any string outside the recognized set.
func ParseStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := transitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// PaymentSnapshot is the payment outcome embedded in an order, captured at
// order time. The provider remains authoritative for the intent itself.
type PaymentSnapshot struct {
	AmountMinor    int64  `json:"amount"`
	Currency       string `json:"currency"`
	IntentID       string `json:"paymentIntentId"`
	ProviderStatus string `json:"status"`
}

type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	ProductIDs []string        `json:"products"`
	Payment    PaymentSnapshot `json:"payment"`
	BuyerName  string          `json:"buyerName"`
	BuyerEmail string          `json:"buyerEmail"`
	Status     OrderStatus     `json:"status"`

	// CheckoutKey is the client-generated idempotency key for the checkout
	// attempt that created this order. ClientSecret is stored so a duplicate
	// start with the same key can be answered without a second intent.
	CheckoutKey  string `json:"-"`
	ClientSecret string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Buyer is the authenticated identity a checkout runs on behalf of.
type Buyer struct {
	ID    string
	Name  string
	Email string
}
