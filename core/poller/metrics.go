package poller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seg_orchestrator_poll_cycles_total",
		Help: "Number of completed polling cycles.",
	})

	pollErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seg_orchestrator_poll_errors_total",
		Help: "Number of per-job reconciliation errors, by job type.",
	}, []string{"job_type"})

	jobTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seg_orchestrator_job_transitions_total",
		Help: "Number of job status transitions applied, by job type and new status.",
	}, []string{"job_type", "status"})

	lastCycleTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seg_orchestrator_last_poll_cycle_timestamp_seconds",
		Help: "Unix timestamp of the most recently completed polling cycle.",
	})
)
