// Package metrics defines the Prometheus collectors for marketplace events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ecocycle"

// Metrics groups the marketplace collectors.
type Metrics struct {
	// Transitions counts product status changes.
	// Labels: from, to.
	Transitions *prometheus.CounterVec
	// Bids counts placed bids.
	Bids prometheus.Counter
	// Purchases counts completed purchases.
	// Label: source ("single" or "cart").
	Purchases *prometheus.CounterVec
	// SalesVolume sums settled prices (purchases and accepted bids).
	SalesVolume prometheus.Counter
	// CarbonCredits sums credits awarded on recycling proofs.
	// Label: role.
	CarbonCredits *prometheus.CounterVec
	// Undos counts undo operations.
	// Label: kind ("delete" or "cart").
	Undos *prometheus.CounterVec
	// Failures counts engine failures.
	// Label: kind (not_found, invalid_state, validation, unauthorized, storage).
	Failures *prometheus.CounterVec
}

// New registers every collector with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Product status transitions.",
		}, []string{"from", "to"}),
		Bids: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bids_total",
			Help:      "Recycling bids placed.",
		}),
		Purchases: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchases_total",
			Help:      "Completed purchases.",
		}, []string{"source"}),
		SalesVolume: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_volume_total",
			Help:      "Sum of settled prices.",
		}),
		CarbonCredits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carbon_credits_awarded_total",
			Help:      "Carbon credits awarded on recycling proofs.",
		}, []string{"role"}),
		Undos: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "undo_total",
			Help:      "Undo operations applied.",
		}, []string{"kind"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Engine operations that failed, by error kind.",
		}, []string{"kind"}),
	}
}

// Discard returns collectors registered nowhere.
func Discard() *Metrics { return New(nil) }
