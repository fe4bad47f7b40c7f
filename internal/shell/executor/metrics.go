package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsCurrentlyRunning tracks the number of export jobs being executed
	JobsCurrentlyRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "export_jobs_currently_running",
		Help: "The number of export jobs currently being executed",
	})

	// JobsTotal counts finished export jobs by terminal status
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Total number of export jobs by terminal status",
	}, []string{"status"})

	// JobQueueDepth tracks the number of jobs waiting for a worker
	JobQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "export_job_queue_depth",
		Help: "The number of export jobs waiting in the queue",
	})
)
