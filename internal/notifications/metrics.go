package notifications

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "opsdesk"

var (
	eventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "events_emitted_total",
			Help:      "Total notification events emitted by kind",
		},
		[]string{"kind"},
	)

	notificationQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "queue_size",
			Help:      "Number of emails in the outbox by status",
		},
		[]string{"status"},
	)

	emailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "emails_total",
			Help:      "Total email delivery attempts by result",
		},
		[]string{"status"},
	)

	emailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "send_duration_seconds",
			Help:      "Time to send one email",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	queueFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "queue_fetched_total",
			Help:      "Total items fetched from the outbox before a send attempt",
		},
	)
)

func recordEventEmitted(kind string) {
	eventsEmitted.WithLabelValues(kind).Inc()
}

func recordEmailSent(status string) {
	emailsSent.WithLabelValues(status).Inc()
}

func recordEmailDuration(duration time.Duration) {
	emailSendDuration.Observe(duration.Seconds())
}

func recordQueueProcessed(count int) {
	queueFetched.Add(float64(count))
}

// RecordQueueStats updates outbox size metrics.
func RecordQueueStats(stats *QueueStats) {
	notificationQueueSize.WithLabelValues("pending").Set(float64(stats.Pending))
	notificationQueueSize.WithLabelValues("processing").Set(float64(stats.Processing))
	notificationQueueSize.WithLabelValues("sent").Set(float64(stats.Sent))
	notificationQueueSize.WithLabelValues("failed").Set(float64(stats.Failed))
}
