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

	ProfileIntegrityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "profile_integrity_score",
			Help:    "Distribution of computed profile integrity scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		},
	)

	UniversityLocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "university_locks_total",
			Help: "Lock attempts by entry point and outcome",
		},
		[]string{"entry_point", "outcome"},
	)

	ApplicationTasksToggled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "application_tasks_toggled_total",
			Help: "Task status flips by resulting status",
		},
		[]string{"status"},
	)

	StoreReadCorrupt = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_read_corrupt_total",
			Help: "Persisted records that failed to decode and were treated as absent",
		},
	)

	UniversitiesFiltered = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "universities_filtered_visible",
			Help:    "Number of universities left visible after filtering",
			Buckets: prometheus.LinearBuckets(0, 5, 10),
		},
	)
)
