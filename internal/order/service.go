package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/09junaid/full-ecommerce/internal/cart"
	"github.com/09junaid/full-ecommerce/internal/logger"
	"github.com/09junaid/full-ecommerce/internal/metrics"
	"github.com/09junaid/full-ecommerce/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const checkoutCurrency = "usd"

// PriceLookup resolves current catalog prices. The checkout amount is always
// recomputed from these, never taken from the client.
type PriceLookup interface {
	PricesFor(ctx context.Context, productIDs []string) (map[string]decimal.Decimal, error)
}

type Service interface {
	// StartCheckout creates a pending order and a payment intent for it,
	// returning the intent's client secret for browser-side confirmation.
	StartCheckout(ctx context.Context, buyer Buyer, items []cart.Item, checkoutKey string) (string, error)

	// CompleteCheckout verifies the intent with the processor and confirms
	// the order it belongs to.
	CompleteCheckout(ctx context.Context, buyer Buyer, intentID string) (*Order, error)

	GetOrder(ctx context.Context, buyer Buyer, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	ListAll(ctx context.Context) ([]*Order, error)
	UpdateStatus(ctx context.Context, orderID, newStatus string) (*Order, error)
}

type service struct {
	repo    Repository
	gateway payment.Gateway
	prices  PriceLookup
	carts   cart.Store
	metrics *metrics.CheckoutMetrics

	// collapses concurrent starts sharing one idempotency key (two tabs
	// submitting the same cart snapshot).
	inflight singleflight.Group
}

func NewService(
	repo Repository,
	gateway payment.Gateway,
	prices PriceLookup,
	carts cart.Store,
	m *metrics.CheckoutMetrics,
) Service {
	return &service{
		repo:    repo,
		gateway: gateway,
		prices:  prices,
		carts:   carts,
		metrics: m,
	}
}

// computeAmount sums current catalog prices for the cart's product ids and
// converts to minor units. Each cart entry is one unit.
func (s *service) computeAmount(ctx context.Context, items []cart.Item) (int64, []string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	catalogPrices, err := s.prices.PricesFor(ctx, ids)
	if err != nil {
		return 0, nil, err
	}

	total := decimal.Zero
	for _, id := range ids {
		total = total.Add(catalogPrices[id])
	}

	return total.Mul(decimal.NewFromInt(100)).IntPart(), ids, nil
}

func (s *service) StartCheckout(ctx context.Context, buyer Buyer, items []cart.Item, checkoutKey string) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyCart
	}
	if checkoutKey == "" {
		return "", ErrMissingCheckoutKey
	}

	secret, err, _ := s.inflight.Do(buyer.ID+":"+checkoutKey, func() (interface{}, error) {
		return s.startCheckout(ctx, buyer, items, checkoutKey)
	})
	if err != nil {
		return "", err
	}
	return secret.(string), nil
}

func (s *service) startCheckout(ctx context.Context, buyer Buyer, items []cart.Item, checkoutKey string) (string, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("user_id", buyer.ID),
		zap.String("checkout_key", checkoutKey),
	)

	s.metrics.Started.Inc()

	// Replay: a live (non-failed) attempt with this key already exists. With
	// an intent recorded, answer with the stored secret; without one, the
	// previous attempt died between persisting the order and recording the
	// intent, so resume that order instead of inserting a duplicate.
	var o *Order
	existing, err := s.repo.GetByCheckoutKey(ctx, buyer.ID, checkoutKey)
	switch {
	case err == nil && existing.ClientSecret != "":
		log.Info("checkout key replayed, returning existing intent",
			zap.String("order_id", existing.ID),
		)
		return existing.ClientSecret, nil
	case err == nil:
		log.Info("resuming checkout attempt without a recorded intent",
			zap.String("order_id", existing.ID),
		)
		o = existing
	case errors.Is(err, ErrOrderNotFound):
	default:
		return "", err
	}

	if o == nil {
		amount, productIDs, err := s.computeAmount(ctx, items)
		if err != nil {
			log.Error("amount computation failed", zap.Error(err))
			return "", err
		}

		o = &Order{
			ID:          uuid.New().String(),
			UserID:      buyer.ID,
			ProductIDs:  productIDs,
			BuyerName:   buyer.Name,
			BuyerEmail:  buyer.Email,
			Status:      StatusCheckoutPending,
			CheckoutKey: checkoutKey,
			Payment: PaymentSnapshot{
				AmountMinor: amount,
				Currency:    checkoutCurrency,
			},
		}

		// The order record exists before the processor is contacted, so a
		// crash between the two calls leaves a visible CheckoutPending row
		// instead of an untracked charge.
		if err := s.repo.CreatePending(ctx, o); err != nil {
			return "", err
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, o.Payment.AmountMinor, o.Payment.Currency,
		map[string]string{"user_id": buyer.ID, "order_id": o.ID}, checkoutKey)
	if err != nil {
		s.metrics.Failed.WithLabelValues(StageIntent).Inc()
		log.Error("intent creation failed", zap.String("order_id", o.ID), zap.Error(err))
		if _, cancelErr := s.repo.UpdateStatus(ctx, o.ID, StatusCancelled); cancelErr != nil {
			log.Error("failed to cancel order after intent failure", zap.Error(cancelErr))
		}
		return "", &CheckoutError{Stage: StageIntent, Err: err}
	}

	if err := s.repo.AttachIntent(ctx, o.ID, intent.ID, intent.ClientSecret, intent.Status); err != nil {
		// Intent exists at the provider but is not recorded; the reconciler
		// cancels the stale CheckoutPending row later.
		s.metrics.Failed.WithLabelValues(StageIntent).Inc()
		log.Error("failed to record intent", zap.String("intent_id", intent.ID), zap.Error(err))
		return "", &CheckoutError{Stage: StageIntent, Err: err}
	}

	log.Info("checkout started",
		zap.String("order_id", o.ID),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount_minor", o.Payment.AmountMinor),
	)
	return intent.ClientSecret, nil
}

func (s *service) CompleteCheckout(ctx context.Context, buyer Buyer, intentID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("user_id", buyer.ID),
		zap.String("intent_id", intentID),
	)

	o, err := s.repo.GetByIntentID(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if o.UserID != buyer.ID {
		return nil, ErrUnauthorized
	}

	// Completing twice is a no-op once the order is past checkout.
	if o.Status != StatusCheckoutPending && o.Status != StatusAwaitingPayment {
		return o, nil
	}

	intent, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		s.metrics.Failed.WithLabelValues(StageConfirmation).Inc()
		log.Error("intent verification failed", zap.Error(err))
		return nil, &CheckoutError{Stage: StageConfirmation, Err: err}
	}

	if intent.Status != payment.StatusSucceeded {
		s.metrics.Failed.WithLabelValues(StageConfirmation).Inc()
		log.Info("payment not completed", zap.String("provider_status", intent.Status))
		return nil, &CheckoutError{
			Stage: StageConfirmation,
			Err:   fmt.Errorf("payment not completed, provider status %q", intent.Status),
		}
	}

	if err := s.repo.Confirm(ctx, o.ID, intent.Status); err != nil {
		// The charge is captured but the order did not confirm. The order
		// stays AwaitingPayment so the reconciler can retry; this is the
		// partial-failure state, counted and logged as such.
		s.metrics.Failed.WithLabelValues(StagePersist).Inc()
		s.metrics.PartialFailures.Inc()
		log.Error("payment captured but order confirmation failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
		return nil, &CheckoutError{Stage: StagePersist, Err: err}
	}

	// Save point: the cart clears only after the order is persisted.
	if err := s.carts.Clear(ctx, buyer.ID); err != nil {
		log.Warn("failed to clear cart after checkout", zap.Error(err))
	}

	s.metrics.Completed.Inc()
	log.Info("checkout completed", zap.String("order_id", o.ID))

	return s.repo.Get(ctx, o.ID)
}

func (s *service) GetOrder(ctx context.Context, buyer Buyer, orderID string) (*Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != buyer.ID {
		return nil, ErrUnauthorized
	}
	return o, nil
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus is the administrative path. Unknown statuses and transitions
// outside the state machine are rejected at this boundary.
func (s *service) UpdateStatus(ctx context.Context, orderID, newStatus string) (*Order, error) {
	status, err := ParseStatus(newStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, status)
	}

	return s.repo.UpdateStatus(ctx, orderID, status)
}
