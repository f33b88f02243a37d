// internal/common/metrics/metrics.go
package metrics

import (
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

	ReciprocalScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_reciprocal_score",
			Help:    "Reciprocal compatibility scores produced",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		},
		[]string{"task_type"},
	)

	CandidatePoolSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_candidate_pool_size",
			Help:    "Number of candidates considered per ranking",
			Buckets: prometheus.ExponentialBuckets(1, 4, 7),
		},
		[]string{"source"},
	)

	PairingProposals = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_pairing_proposals",
			Help:    "Proposals made per stable pairing run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9),
		},
	)

	PairingUnmatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_pairing_unmatched_total",
			Help: "Proposers left without a partner",
		},
	)

	ProfileCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_cache_requests_total",
			Help: "Profile cache lookups by layer and result",
		},
		[]string{"layer", "result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Daily match notifications by channel and status",
		},
		[]string{"channel", "status"},
	)
)
