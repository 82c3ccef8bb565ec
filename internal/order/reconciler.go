package order

import (
	"context"
	"time"

	"github.com/09junaid/full-ecommerce/internal/logger"
	"github.com/09junaid/full-ecommerce/internal/metrics"
	"github.com/09junaid/full-ecommerce/internal/payment"

	"go.uber.org/zap"
)

const (
	actionConfirmed      = "confirmed"
	actionCancelled      = "cancelled"
	actionAbandoned      = "abandoned"
	actionExpired        = "expired"
	actionRefundRequired = "refund_required"
)

// Reconciler periodically sweeps orders stuck in the checkout phase and
// settles them against the payment processor's view.
type Reconciler struct {
	repo     Repository
	gateway  payment.Gateway
	metrics  *metrics.CheckoutMetrics
	interval time.Duration
	maxAge   time.Duration
}

func NewReconciler(
	repo Repository,
	gateway payment.Gateway,
	m *metrics.CheckoutMetrics,
	interval, maxAge time.Duration,
) *Reconciler {
	return &Reconciler{
		repo:     repo,
		gateway:  gateway,
		metrics:  m,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (r *Reconciler) Run(ctx context.Context) {
	log := logger.L().With(zap.String("component", "reconciler"))
	log.Info("reconciler started",
		zap.Duration("interval", r.interval),
		zap.Duration("max_age", r.maxAge),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep settles every order that has sat in a checkout state longer than
// maxAge. A failure on one order is logged and does not stop the sweep.
func (r *Reconciler) Sweep(ctx context.Context) error {
	log := logger.L().With(zap.String("component", "reconciler"))
	r.metrics.ReconcilerRuns.Inc()

	stale, err := r.repo.ListStaleCheckouts(ctx, time.Now().Add(-r.maxAge))
	if err != nil {
		return err
	}

	for _, o := range stale {
		if err := r.settle(ctx, o); err != nil {
			log.Error("failed to settle order",
				zap.String("order_id", o.ID),
				zap.String("status", string(o.Status)),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (r *Reconciler) settle(ctx context.Context, o *Order) error {
	log := logger.L().With(
		zap.String("component", "reconciler"),
		zap.String("order_id", o.ID),
	)

	switch o.Status {
	case StatusCheckoutPending:
		// Never got an intent recorded; nothing was charged.
		if _, err := r.repo.UpdateStatus(ctx, o.ID, StatusCancelled); err != nil {
			return err
		}
		r.metrics.Reconciled.WithLabelValues(actionAbandoned).Inc()
		log.Info("abandoned checkout cancelled")
		return nil

	case StatusAwaitingPayment:
		return r.settleAwaitingPayment(ctx, o, log)

	default:
		return nil
	}
}

func (r *Reconciler) settleAwaitingPayment(ctx context.Context, o *Order, log *zap.Logger) error {
	intent, err := r.gateway.GetIntent(ctx, o.Payment.IntentID)
	if err != nil {
		return err
	}

	switch intent.Status {
	case payment.StatusSucceeded:
		// The charge went through but CompleteCheckout never landed.
		if err := r.repo.Confirm(ctx, o.ID, intent.Status); err != nil {
			r.metrics.PartialFailures.Inc()
			if _, markErr := r.repo.UpdateStatus(ctx, o.ID, StatusRefundRequired); markErr != nil {
				return markErr
			}
			r.metrics.Reconciled.WithLabelValues(actionRefundRequired).Inc()
			log.Error("captured payment could not be confirmed, flagged for refund", zap.Error(err))
			return nil
		}
		r.metrics.Reconciled.WithLabelValues(actionConfirmed).Inc()
		log.Info("stale checkout confirmed from processor state")
		return nil

	case payment.StatusCanceled, payment.StatusFailed:
		if _, err := r.repo.UpdateStatus(ctx, o.ID, StatusCancelled); err != nil {
			return err
		}
		r.metrics.Reconciled.WithLabelValues(actionCancelled).Inc()
		log.Info("checkout cancelled, processor reports no charge",
			zap.String("provider_status", intent.Status),
		)
		return nil

	default:
		// Still collectible at the processor; expire our side so the money
		// cannot be taken against a dead cart.
		if err := r.gateway.CancelIntent(ctx, o.Payment.IntentID); err != nil {
			return err
		}
		if _, err := r.repo.UpdateStatus(ctx, o.ID, StatusCancelled); err != nil {
			return err
		}
		r.metrics.Reconciled.WithLabelValues(actionExpired).Inc()
		log.Info("expired checkout intent cancelled",
			zap.String("provider_status", intent.Status),
		)
		return nil
	}
}
