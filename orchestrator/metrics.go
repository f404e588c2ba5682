package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts orchestration outcomes.
type Metrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	attempts    *prometheus.CounterVec
	fallbacks   prometheus.Counter
}

// NewMetrics creates orchestration metrics registered against reg.
// A nil registerer creates unregistered metrics, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clinscribe",
			Subsystem: "generation",
			Name:      "cache_hits_total",
			Help:      "Generations served from the response cache.",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clinscribe",
			Subsystem: "generation",
			Name:      "cache_misses_total",
			Help:      "Cache lookups that fell through to a provider.",
		}),
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinscribe",
			Subsystem: "generation",
			Name:      "attempts_total",
			Help:      "Provider attempts by provider, tier, and outcome.",
		}, []string{"provider", "tier", "outcome"}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "clinscribe",
			Subsystem: "generation",
			Name:      "fallbacks_total",
			Help:      "Attempts that degraded tier or provider after a failure.",
		}),
	}
}

func (m *Metrics) observeAttempt(provider, tier string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.attempts.WithLabelValues(provider, tier, outcome).Inc()
}
