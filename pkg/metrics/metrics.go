// Package metrics provides Prometheus metrics for the resolution engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Ramsey-B/fern/pkg/models"
)

var (
	// StrategyRunsTotal tracks strategy runs by outcome reason
	StrategyRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "strategy_runs_total",
			Help:      "Total number of strategy runs by strategy and reason",
		},
		[]string{"strategy", "reason"},
	)

	// StrategyDuration tracks strategy run duration in seconds
	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "strategy_duration_seconds",
			Help:      "Duration of strategy runs in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	// StrategyCandidates tracks how many candidates each strategy returns
	StrategyCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "matching",
			Name:      "strategy_candidates",
			Help:      "Number of candidates returned per strategy run",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		},
		[]string{"strategy"},
	)

	// ResolutionsTotal tracks resolutions by winning strategy
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of listing resolutions by winning strategy and reason",
		},
		[]string{"strategy", "reason"},
	)

	// ResolutionDuration tracks end-to-end cascade duration in seconds
	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fern",
			Subsystem: "resolver",
			Name:      "resolution_duration_seconds",
			Help:      "Duration of full cascade runs in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// CacheLookupsTotal tracks result cache hits and misses
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of result cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// KafkaMessagesConsumed tracks consumed listing messages by status
	KafkaMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "messages_consumed_total",
			Help:      "Total number of listing messages consumed by status",
		},
		[]string{"status"},
	)

	// EventsPublishedTotal tracks published events by status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fern",
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "Total number of events published by type and status",
		},
		[]string{"event_type", "status"},
	)
)

// Observer records cascade metrics. It satisfies matching.Observer.
type Observer struct{}

func (Observer) ObserveStrategy(strategy models.Strategy, reason models.ReasonCode, candidates int, duration time.Duration) {
	StrategyRunsTotal.WithLabelValues(string(strategy), string(reason)).Inc()
	StrategyDuration.WithLabelValues(string(strategy)).Observe(duration.Seconds())
	StrategyCandidates.WithLabelValues(string(strategy)).Observe(float64(candidates))
}

func (Observer) ObserveResolution(strategy models.Strategy, reason models.ReasonCode, duration time.Duration) {
	ResolutionsTotal.WithLabelValues(string(strategy), string(reason)).Inc()
	ResolutionDuration.Observe(duration.Seconds())
}

// RecordCacheLookup records a result cache hit or miss
func RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordKafkaMessage records a consumed listing message
func RecordKafkaMessage(status string) {
	KafkaMessagesConsumed.WithLabelValues(status).Inc()
}

// RecordEventPublished records an event publish attempt
func RecordEventPublished(eventType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
