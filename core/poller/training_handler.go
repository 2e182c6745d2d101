package poller

import (
	"context"
	"time"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/slurm"
)

// TrainingStore is the slice of the training repository the handler needs.
type TrainingStore interface {
	CompleteTraining(ctx context.Context, jobID string, startTime, endTime *time.Time) (bool, error)
	FailTraining(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error)
}

// TrainingHandler finalizes training jobs. Completion creates the model
// record inside the same transaction as the status flip.
type TrainingHandler struct {
	trainings TrainingStore
}

// NewTrainingHandler creates a training terminal handler.
func NewTrainingHandler(trainings TrainingStore) *TrainingHandler {
	return &TrainingHandler{trainings: trainings}
}

func (h *TrainingHandler) JobType() models.JobType {
	return models.JobTypeTraining
}

func (h *TrainingHandler) HandleCompleted(ctx context.Context, job *models.Job, info *slurm.JobInfo) (bool, error) {
	return h.trainings.CompleteTraining(ctx, job.ID, info.StartTime, info.EndTime)
}

func (h *TrainingHandler) HandleFailed(ctx context.Context, job *models.Job, info *slurm.JobInfo, message string) (bool, error) {
	return h.trainings.FailTraining(ctx, job.ID, info.StartTime, info.EndTime, message)
}
