package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	DocumentsRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mintslip_documents_rendered_total",
			Help: "Documents rendered by type and output format",
		},
		[]string{"document_type", "format"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mintslip_payments_total",
			Help: "Payment attempts by provider and resulting status",
		},
		[]string{"provider", "status"},
	)

	DownloadsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mintslip_subscription_downloads_consumed_total",
			Help: "Subscription downloads consumed by tier",
		},
		[]string{"tier"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mintslip_notifications_sent_total",
			Help: "Notifications by channel and outcome",
		},
		[]string{"channel", "status"},
	)

	PreviewRenders = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mintslip_preview_renders_total",
			Help: "Debounced preview renders",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mintslip_http_requests_total",
			Help: "HTTP API requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mintslip_http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	BackendBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mintslip_backend_breaker_state",
			Help: "Backend circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// ObserveJob records a completed job and its duration since start.
func ObserveJob(taskType string, start time.Time) {
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
}
