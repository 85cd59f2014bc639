package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's operational counters.
type Metrics struct {
	EventsAppended     prometheus.Counter
	ConflictsRaised    prometheus.Counter
	ConflictsResolved  prometheus.Counter
	InvalidTransitions prometheus.Counter
	FeedInserts        prometheus.Counter
}

// NewMetrics creates the engine counters and registers them with reg.
// A nil registerer creates unregistered counters, which tests use to
// avoid duplicate-registration panics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "braid_events_appended_total",
			Help: "Total events appended to the ledger.",
		}),
		ConflictsRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "braid_conflicts_raised_total",
			Help: "Total conflicts raised.",
		}),
		ConflictsResolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "braid_conflicts_resolved_total",
			Help: "Total conflicts resolved.",
		}),
		InvalidTransitions: factory.NewCounter(prometheus.CounterOpts{
			Name: "braid_invalid_transitions_total",
			Help: "Total commands rejected by the lifecycle state machine.",
		}),
		FeedInserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "braid_feed_inserts_total",
			Help: "Total entries offered to the activity feed.",
		}),
	}
}
