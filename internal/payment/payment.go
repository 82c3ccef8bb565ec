package payment

import (
	"context"
	"fmt"
)

// Intent statuses as reported by the card processor. The taxonomy is owned by
// the processor; these constants cover the values checkout cares about.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
	StatusFailed                = "failed"
)

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Gateway translates amounts into provider payment intents. It carries no
// business logic; amount validation and sequencing live in the checkout
// orchestrator. A failed call is surfaced directly with no retries.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string, metadata map[string]string, idempotencyKey string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) error
}

// GatewayError reports a processor-side failure: unreachable host, rejected
// amount, or a non-2xx response.
type GatewayError struct {
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway error: %v", e.Err)
	}
	return fmt.Sprintf("payment gateway error: status %d: %s", e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
