package poller

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/slurm"
)

const summaryFileName = "summary.json"

// EvaluationStore is the slice of the evaluation repository the handler needs.
type EvaluationStore interface {
	GetByJobID(ctx context.Context, jobID string) (*models.Evaluation, error)
	CompleteEvaluation(ctx context.Context, jobID string, startTime, endTime *time.Time, results []byte) (bool, error)
	FailEvaluation(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error)
}

// EvaluationHandler finalizes evaluation jobs, reading the metrics summary
// from the job's output location before the status flip.
type EvaluationHandler struct {
	evaluations EvaluationStore
	results     ResultFetcher
}

// NewEvaluationHandler creates an evaluation terminal handler.
func NewEvaluationHandler(evaluations EvaluationStore, results ResultFetcher) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations, results: results}
}

func (h *EvaluationHandler) JobType() models.JobType {
	return models.JobTypeEvaluation
}

func (h *EvaluationHandler) HandleCompleted(ctx context.Context, job *models.Job, info *slurm.JobInfo) (bool, error) {
	evaluation, err := h.evaluations.GetByJobID(ctx, job.ID)
	if err != nil {
		return false, err
	}
	if evaluation == nil {
		return false, errors.Errorf("no evaluation record for job %s", job.ID)
	}

	results, err := h.results.Fetch(ctx, resultURI(evaluation.OutputPath, summaryFileName))
	if err != nil {
		return false, &SideEffectError{JobID: job.ID, Err: err}
	}
	return h.evaluations.CompleteEvaluation(ctx, job.ID, info.StartTime, info.EndTime, results)
}

func (h *EvaluationHandler) HandleFailed(ctx context.Context, job *models.Job, info *slurm.JobInfo, message string) (bool, error) {
	return h.evaluations.FailEvaluation(ctx, job.ID, info.StartTime, info.EndTime, message)
}
