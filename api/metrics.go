/*
metrics.go - Prometheus instrumentation for the API surface

PURPOSE:
  Counts the business operations the back office cares about. The engine
  itself never records metrics (it is pure decision logic); the API layer
  observes outcomes on the way out.

METRICS:
  backoffice_payments_recorded_total{result}   payments by outcome
  backoffice_payment_amount                    histogram of paid amounts
  backoffice_lifecycle_transitions_total{kind} cancellations/terminations
  backoffice_refund_amount                     histogram of refund amounts
*/
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the API.
type Metrics struct {
	PaymentsRecorded     *prometheus.CounterVec
	PaymentAmount        prometheus.Histogram
	LifecycleTransitions *prometheus.CounterVec
	RefundAmount         prometheus.Histogram
}

// NewMetrics registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PaymentsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_payments_recorded_total",
			Help: "Payment recording attempts by outcome.",
		}, []string{"result"}),
		PaymentAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "backoffice_payment_amount",
			Help:    "Recorded payment amounts.",
			Buckets: prometheus.ExponentialBuckets(10, 2.5, 8),
		}),
		LifecycleTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_lifecycle_transitions_total",
			Help: "Administrative transitions by kind.",
		}, []string{"kind"}),
		RefundAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "backoffice_refund_amount",
			Help:    "Computed refund amounts.",
			Buckets: prometheus.ExponentialBuckets(10, 2.5, 8),
		}),
	}
}
