package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/slurm"
)

// SideEffectError indicates a terminal side effect could not be confirmed
// persisted. The job keeps its current status so the next poll cycle
// retries the transition.
type SideEffectError struct {
	JobID string
	Err   error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("side effect failed for job %s: %v", e.JobID, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

// SchedulerClient queries the external scheduler for job state.
type SchedulerClient interface {
	Query(ctx context.Context, externalID string) (*slurm.JobInfo, error)
}

// JobStore is the slice of job persistence the monitor drives directly.
// Terminal transitions go through the TerminalHandler instead, so that the
// workflow-record update and side effect commit atomically with the status
// write.
type JobStore interface {
	ListActive(ctx context.Context, jobType models.JobType) ([]*models.Job, error)
	MarkRunning(ctx context.Context, id string, startTime time.Time) error
	IncrementUnknown(ctx context.Context, id string) (int, error)
	ResetUnknown(ctx context.Context, id string) error
}

// TerminalHandler applies the job-type-specific terminal transition. Both
// methods return (false, nil) when the job was already terminal, which
// keeps repeated observations idempotent.
type TerminalHandler interface {
	JobType() models.JobType
	HandleCompleted(ctx context.Context, job *models.Job, info *slurm.JobInfo) (bool, error)
	HandleFailed(ctx context.Context, job *models.Job, info *slurm.JobInfo, message string) (bool, error)
}

// Monitor reconciles all non-terminal jobs of one type against the
// scheduler. One failing job never aborts the rest of the cycle.
type Monitor struct {
	jobs             JobStore
	scheduler        SchedulerClient
	mapping          *slurm.StateMapping
	handler          TerminalHandler
	unknownThreshold int
}

// NewMonitor creates a monitor for the handler's job type.
func NewMonitor(jobs JobStore, scheduler SchedulerClient, mapping *slurm.StateMapping, handler TerminalHandler, unknownThreshold int) *Monitor {
	return &Monitor{
		jobs:             jobs,
		scheduler:        scheduler,
		mapping:          mapping,
		handler:          handler,
		unknownThreshold: unknownThreshold,
	}
}

// JobType returns the job-type partition this monitor owns.
func (m *Monitor) JobType() models.JobType {
	return m.handler.JobType()
}

// RunCycle performs one reconciliation pass over the monitor's active jobs.
func (m *Monitor) RunCycle(ctx context.Context) {
	jobs, err := m.jobs.ListActive(ctx, m.JobType())
	if err != nil {
		log.WithError(err).WithField("job_type", m.JobType()).Error("Failed to list active jobs")
		pollErrorsTotal.WithLabelValues(string(m.JobType())).Inc()
		return
	}
	if len(jobs) == 0 {
		return
	}

	log.WithFields(log.Fields{
		"job_type": m.JobType(),
		"count":    len(jobs),
	}).Debug("Polling active jobs")

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		if err := m.reconcileJob(ctx, job); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"job_id":   job.ID,
				"job_type": m.JobType(),
			}).Error("Failed to reconcile job")
			pollErrorsTotal.WithLabelValues(string(m.JobType())).Inc()
		}
	}
}

func (m *Monitor) reconcileJob(ctx context.Context, job *models.Job) error {
	if job.ExternalID == nil {
		// Never selected by ListActive; guard against misuse.
		return errors.Errorf("job %s has no external id", job.ID)
	}

	info, err := m.scheduler.Query(ctx, *job.ExternalID)
	if err != nil {
		var transient *slurm.TransientQueryError
		if errors.As(err, &transient) {
			// Unreachable scheduler counts as an unknown observation so a
			// permanently unparsable or hung job is eventually escalated.
			log.WithField("job_id", job.ID).WithError(err).Warn("Transient scheduler query failure")
			return m.observeUnknown(ctx, job)
		}
		return err
	}

	outcome := Reconcile(job.Status, info.RawState, m.mapping)
	switch outcome.Action {
	case ActionUnknown:
		log.WithFields(log.Fields{
			"job_id":    job.ID,
			"raw_state": info.RawState,
		}).Warn("Unrecognized scheduler state")
		return m.observeUnknown(ctx, job)

	case ActionNone:
		if job.UnknownCount > 0 {
			return m.jobs.ResetUnknown(ctx, job.ID)
		}
		return nil

	case ActionMarkRunning:
		startTime := time.Now()
		if info.StartTime != nil {
			startTime = *info.StartTime
		}
		if err := m.jobs.MarkRunning(ctx, job.ID, startTime); err != nil {
			return err
		}
		m.logTransition(job, outcome.Next, info.RawState)
		return nil

	case ActionComplete:
		won, err := m.handler.HandleCompleted(ctx, job, info)
		if err != nil {
			return err
		}
		if won {
			m.logTransition(job, outcome.Next, info.RawState)
		}
		return nil

	case ActionFail:
		won, err := m.handler.HandleFailed(ctx, job, info, info.ErrorMessage())
		if err != nil {
			return err
		}
		if won {
			m.logTransition(job, outcome.Next, info.RawState)
		}
		return nil
	}
	return nil
}

// observeUnknown counts an unknown observation and escalates the job to
// FAILED once the configured threshold of consecutive unknowns is reached.
func (m *Monitor) observeUnknown(ctx context.Context, job *models.Job) error {
	count, err := m.jobs.IncrementUnknown(ctx, job.ID)
	if err != nil {
		return err
	}
	if count < m.unknownThreshold {
		return nil
	}

	info := &slurm.JobInfo{RawState: "UNKNOWN"}
	message := fmt.Sprintf("reconciliation exhausted after %d consecutive unknown scheduler states", count)
	won, err := m.handler.HandleFailed(ctx, job, info, message)
	if err != nil {
		return err
	}
	if won {
		log.WithFields(log.Fields{
			"job_id": job.ID,
			"count":  count,
		}).Error("Job escalated to FAILED: " + message)
		jobTransitionsTotal.WithLabelValues(string(m.JobType()), string(models.JobStatusFailed)).Inc()
	}
	return nil
}

func (m *Monitor) logTransition(job *models.Job, next models.JobStatus, rawState string) {
	log.WithFields(log.Fields{
		"job_id":    job.ID,
		"from":      job.Status,
		"to":        next,
		"raw_state": rawState,
	}).Info("Job transitioned")
	jobTransitionsTotal.WithLabelValues(string(m.JobType()), string(next)).Inc()
}
