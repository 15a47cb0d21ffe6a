package metrics

import (
	"github.com/livepeer/karaoke-dash-server/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// KaraokeMetrics mirrors the teacher's flat top-level metrics struct, trimmed
// to the gauges/counters/histograms this server actually emits.
type KaraokeMetrics struct {
	Version *prometheus.CounterVec

	HTTPRequestsInFlight prometheus.Gauge

	// C3 worker pool
	JobsInFlight    prometheus.Gauge
	JobQueueDepth   prometheus.Gauge
	WorkersBusy     prometheus.Gauge
	JobDurationSec  *prometheus.HistogramVec
	JobFailureCount *prometheus.CounterVec

	// C4 queue coordinator
	QueueDepth    prometheus.Gauge
	MailboxDepth  prometheus.Gauge
	CurrentKey    prometheus.Gauge
	CommandErrors *prometheus.CounterVec

	// C5 event bus
	EventsPublished *prometheus.CounterVec
	SubscriberLag   prometheus.Counter
	Subscribers     prometheus.Gauge
}

func NewMetrics() KaraokeMetrics {
	m := KaraokeMetrics{
		Version: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "karaoke_version",
			Help: "A metric with a constant '1' value, labeled by version",
		}, []string{"version"}),

		HTTPRequestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_http_requests_in_flight",
			Help: "Number of currently active HTTP requests",
		}),

		JobsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_jobs_in_flight",
			Help: "Number of download/transcode jobs currently being processed by a worker",
		}),
		JobQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_job_queue_depth",
			Help: "Number of jobs buffered on the worker pool's job channel, waiting for a free worker",
		}),
		WorkersBusy: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_workers_busy",
			Help: "Number of worker goroutines currently executing a job",
		}),
		JobDurationSec: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "karaoke_job_duration_seconds",
			Help:    "Time to download + transcode a song, from job dequeue to completion",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"outcome"}),
		JobFailureCount: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "karaoke_job_failure_count",
			Help: "Count of failed download/transcode jobs, labeled by failure stage",
		}, []string{"stage"}),

		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_queue_depth",
			Help: "Number of songs currently held by the queue coordinator",
		}),
		MailboxDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_coordinator_mailbox_depth",
			Help: "Number of commands buffered on the coordinator's mailbox channel",
		}),
		CurrentKey: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_current_key",
			Help: "Current global pitch key offset in semitones",
		}),
		CommandErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "karaoke_coordinator_command_errors",
			Help: "Count of coordinator commands that returned an error, labeled by kind",
		}, []string{"kind"}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "karaoke_events_published",
			Help: "Count of events published on the broadcast bus, labeled by event type",
		}, []string{"type"}),
		SubscriberLag: promauto.NewCounter(prometheus.CounterOpts{
			Name: "karaoke_bus_subscriber_lag_total",
			Help: "Count of times a subscriber fell behind and had to be notified of dropped events",
		}),
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "karaoke_bus_subscribers",
			Help: "Number of active SSE subscribers on the event bus",
		}),
	}

	m.Version.WithLabelValues(config.Version).Inc()

	return m
}

// Metrics is the package-level instance every handler/worker/coordinator
// reports to, matching the teacher's single shared `Metrics` var.
var Metrics = NewMetrics()
