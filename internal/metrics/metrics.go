package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckoutMetrics counts checkout outcomes and reconciler actions.
type CheckoutMetrics struct {
	Started         prometheus.Counter
	Completed       prometheus.Counter
	Failed          *prometheus.CounterVec
	PartialFailures prometheus.Counter
	ReconcilerRuns  prometheus.Counter
	Reconciled      *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	m := &CheckoutMetrics{
		Started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "started_total",
			Help:      "Checkout attempts started.",
		}),
		Completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "completed_total",
			Help:      "Checkouts completed with a confirmed order.",
		}),
		Failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "failed_total",
			Help:      "Checkout failures by stage.",
		}, []string{"stage"}),
		PartialFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "checkout",
			Name:      "partial_failures_total",
			Help:      "Payments captured without a confirmed order.",
		}),
		ReconcilerRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "reconciler",
			Name:      "runs_total",
			Help:      "Reconciliation passes executed.",
		}),
		Reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "reconciler",
			Name:      "orders_total",
			Help:      "Stale checkout orders resolved, by action.",
		}, []string{"action"}),
	}

	reg.MustRegister(m.Started, m.Completed, m.Failed, m.PartialFailures, m.ReconcilerRuns, m.Reconciled)
	return m
}

// NewDefaultCheckoutMetrics registers against the global registry.
func NewDefaultCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetrics(prometheus.DefaultRegisterer)
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
