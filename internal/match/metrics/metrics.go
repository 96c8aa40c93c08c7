package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the matching module. All methods are
// nil-safe so tests can pass a nil collector.
type Metrics struct {
	// Matches created, labeled by origin ("orchestrator" or "batch").
	MatchesCreated *prometheus.CounterVec

	// Candidate pairs scored, labeled by outcome
	// ("accepted", "below_threshold", "incompatible").
	PairsScored *prometheus.CounterVec

	// Lifecycle transitions by resulting status.
	Transitions *prometheus.CounterVec

	// Full batch pass duration.
	BatchDuration prometheus.Histogram

	// Latest AI match rate published by the batch engine.
	AIMatchRate prometheus.Gauge
}

// New creates a Metrics instance with all matching module metrics registered.
func New() *Metrics {
	return &Metrics{
		MatchesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_matches_created_total",
			Help: "Total matches created, by origin",
		}, []string{"origin"}),

		PairsScored: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_pairs_scored_total",
			Help: "Total donor/recipient pairs scored, by outcome",
		}, []string{"outcome"}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelink_match_transitions_total",
			Help: "Total match lifecycle transitions, by resulting status",
		}, []string{"status"}),

		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifelink_batch_duration_seconds",
			Help:    "Duration of full batch matching passes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),

		AIMatchRate: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lifelink_ai_match_rate",
			Help: "Share of batch matches scoring at or above the high-confidence bar, percent",
		}),
	}
}

// IncMatchCreated records one created match.
func (m *Metrics) IncMatchCreated(origin string) {
	if m != nil {
		m.MatchesCreated.WithLabelValues(origin).Inc()
	}
}

// IncPairScored records one scored pair by outcome.
func (m *Metrics) IncPairScored(outcome string) {
	if m != nil {
		m.PairsScored.WithLabelValues(outcome).Inc()
	}
}

// IncTransition records one applied lifecycle transition.
func (m *Metrics) IncTransition(status string) {
	if m != nil {
		m.Transitions.WithLabelValues(status).Inc()
	}
}

// ObserveBatchDuration records the duration of one batch pass.
func (m *Metrics) ObserveBatchDuration(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}

// SetAIMatchRate publishes the latest batch match rate.
func (m *Metrics) SetAIMatchRate(rate float64) {
	if m != nil {
		m.AIMatchRate.Set(rate)
	}
}
