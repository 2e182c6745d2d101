package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
)

// ModelCatalogue resolves stored model records.
type ModelCatalogue interface {
	Get(ctx context.Context, id string) (*models.Model, error)
}

// InferenceStore is the slice of the inference repository the facade needs.
type InferenceStore interface {
	CreateWithJob(ctx context.Context, inference *models.Inference, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Inference, error)
	FailInference(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error)
}

// InferenceRequest is a request to run a trained model over new input.
type InferenceRequest struct {
	ModelID   string `json:"model_id"`
	InputPath string `json:"input_path"`
}

// InferenceService validates prediction requests against the model
// catalogue and drives them through record creation and submission.
type InferenceService struct {
	inferences InferenceStore
	modelsCat  ModelCatalogue
	jobs       JobBinder
	renderer   ScriptRenderer
	scheduler  Scheduler
}

// NewInferenceService creates an inference submission facade.
func NewInferenceService(inferences InferenceStore, modelsCat ModelCatalogue, jobs JobBinder, renderer ScriptRenderer, scheduler Scheduler) *InferenceService {
	return &InferenceService{
		inferences: inferences,
		modelsCat:  modelsCat,
		jobs:       jobs,
		renderer:   renderer,
		scheduler:  scheduler,
	}
}

// Submit creates the inference and job records at PENDING, submits the
// rendered script, and records the external job id. The output location
// embeds the job id and submission time so concurrent predictions against
// the same model never collide.
func (s *InferenceService) Submit(ctx context.Context, req *InferenceRequest) (*models.Inference, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	model, err := s.modelsCat.Get(ctx, req.ModelID)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, &NotFoundError{Kind: "model", ID: req.ModelID}
	}

	now := time.Now()
	jobID := uuid.New().String()
	outputPath := fmt.Sprintf("%s/inference/%s-%d", model.Path, jobID, now.Unix())

	script, err := s.renderer.Render(InferenceTemplate, map[string]string{
		"model_path":  model.Path,
		"input_path":  req.InputPath,
		"output_path": outputPath,
	})
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:               jobID,
		JobType:          models.JobTypeInference,
		Status:           models.JobStatusPending,
		SubmissionScript: script,
	}
	inference := &models.Inference{
		ID:         uuid.New().String(),
		ModelID:    model.ID,
		JobID:      job.ID,
		InputPath:  req.InputPath,
		OutputPath: outputPath,
		Status:     models.WorkflowStatusPending,
		StartTime:  &now,
	}

	if err := s.inferences.CreateWithJob(ctx, inference, job); err != nil {
		return nil, err
	}

	externalID, err := s.scheduler.Submit(ctx, script)
	if err != nil {
		s.markSubmitFailed(ctx, job.ID, err)
		return nil, err
	}
	if err := s.jobs.SetExternalID(ctx, job.ID, externalID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"inference_id": inference.ID,
		"model_id":     model.ID,
		"job_id":       job.ID,
		"external_id":  externalID,
	}).Info("Inference submitted")
	return inference, nil
}

// Get retrieves an inference by id.
func (s *InferenceService) Get(ctx context.Context, id string) (*models.Inference, error) {
	inference, err := s.inferences.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inference == nil {
		return nil, &NotFoundError{Kind: "inference", ID: id}
	}
	return inference, nil
}

func (s *InferenceService) markSubmitFailed(ctx context.Context, jobID string, cause error) {
	now := time.Now()
	if _, err := s.inferences.FailInference(ctx, jobID, nil, &now, cause.Error()); err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("Failed to record submission failure")
	}
}

func (r *InferenceRequest) validate() error {
	switch {
	case r.ModelID == "":
		return &ValidationError{Field: "model_id", Reason: "must not be empty"}
	case r.InputPath == "":
		return &ValidationError{Field: "input_path", Reason: "must not be empty"}
	}
	return nil
}
