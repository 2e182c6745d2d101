package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
)

// EvaluationStore is the slice of the evaluation repository the facade needs.
type EvaluationStore interface {
	CreateWithJob(ctx context.Context, evaluation *models.Evaluation, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Evaluation, error)
	FailEvaluation(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error)
}

// EvaluationRequest is a request to score a trained model over a labelled
// dataset.
type EvaluationRequest struct {
	ModelID        string   `json:"model_id"`
	EvaluationPath string   `json:"evaluation_path"`
	Configurations []string `json:"configurations"`
}

// EvaluationService validates evaluation requests against the model
// catalogue and drives them through record creation and submission.
type EvaluationService struct {
	evaluations    EvaluationStore
	modelsCat      ModelCatalogue
	jobs           JobBinder
	renderer       ScriptRenderer
	scheduler      Scheduler
	modelsBasePath string
}

// NewEvaluationService creates an evaluation submission facade.
func NewEvaluationService(evaluations EvaluationStore, modelsCat ModelCatalogue, jobs JobBinder, renderer ScriptRenderer, scheduler Scheduler, modelsBasePath string) *EvaluationService {
	return &EvaluationService{
		evaluations:    evaluations,
		modelsCat:      modelsCat,
		jobs:           jobs,
		renderer:       renderer,
		scheduler:      scheduler,
		modelsBasePath: modelsBasePath,
	}
}

// Submit creates the evaluation and job records at PENDING, submits the
// rendered script, and records the external job id.
func (s *EvaluationService) Submit(ctx context.Context, req *EvaluationRequest) (*models.Evaluation, error) {
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
	outputPath := fmt.Sprintf("%s/%s/evaluation/%d", s.modelsBasePath, model.Name, now.Unix())

	script, err := s.renderer.Render(EvaluationTemplate, map[string]string{
		"model_path":      model.Path,
		"evaluation_path": req.EvaluationPath,
		"output_path":     outputPath,
		"configurations":  strings.Join(req.Configurations, " "),
	})
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:               uuid.New().String(),
		JobType:          models.JobTypeEvaluation,
		Status:           models.JobStatusPending,
		SubmissionScript: script,
	}
	evaluation := &models.Evaluation{
		ID:             uuid.New().String(),
		ModelID:        model.ID,
		JobID:          job.ID,
		EvaluationPath: req.EvaluationPath,
		Configurations: req.Configurations,
		OutputPath:     outputPath,
		Status:         models.WorkflowStatusPending,
		StartTime:      &now,
	}

	if err := s.evaluations.CreateWithJob(ctx, evaluation, job); err != nil {
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
		"evaluation_id": evaluation.ID,
		"model_id":      model.ID,
		"job_id":        job.ID,
		"external_id":   externalID,
	}).Info("Evaluation submitted")
	return evaluation, nil
}

// Get retrieves an evaluation by id.
func (s *EvaluationService) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	evaluation, err := s.evaluations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, &NotFoundError{Kind: "evaluation", ID: id}
	}
	return evaluation, nil
}

func (s *EvaluationService) markSubmitFailed(ctx context.Context, jobID string, cause error) {
	now := time.Now()
	if _, err := s.evaluations.FailEvaluation(ctx, jobID, nil, &now, cause.Error()); err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("Failed to record submission failure")
	}
}

func (r *EvaluationRequest) validate() error {
	switch {
	case r.ModelID == "":
		return &ValidationError{Field: "model_id", Reason: "must not be empty"}
	case r.EvaluationPath == "":
		return &ValidationError{Field: "evaluation_path", Reason: "must not be empty"}
	case len(r.Configurations) == 0:
		return &ValidationError{Field: "configurations", Reason: "must list at least one configuration"}
	}
	return nil
}
