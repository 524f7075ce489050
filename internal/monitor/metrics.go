package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsdesk"

var (
	sweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "sweeps_total",
			Help:      "Total SLA sweep runs by outcome",
		},
		[]string{"outcome"},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one SLA sweep",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	lastSweepTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "last_sweep_timestamp_seconds",
			Help:      "Unix time of the last completed sweep",
		},
	)

	slaTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "monitor",
			Name:      "sla_transitions_total",
			Help:      "SLA classification transitions applied by the sweep",
		},
		[]string{"transition"},
	)
)

func recordSweep(outcome string, duration time.Duration) {
	sweepsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		sweepDuration.Observe(duration.Seconds())
		lastSweepTimestamp.SetToCurrentTime()
	}
}

func recordTransition(transition string) {
	slaTransitions.WithLabelValues(transition).Inc()
}
