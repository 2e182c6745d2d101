package submission

import (
	"context"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
)

// Template file names resolved through the script renderer.
const (
	TrainingTemplate   = "train.sbatch"
	InferenceTemplate  = "inference.sbatch"
	EvaluationTemplate = "evaluation.sbatch"
)

// ScriptRenderer renders a named template with the given variables.
type ScriptRenderer interface {
	Render(name string, variables map[string]string) (string, error)
}

// Scheduler submits a rendered script and returns the external job id.
type Scheduler interface {
	Submit(ctx context.Context, script string) (string, error)
}

// JobBinder records the external id on a freshly submitted job.
type JobBinder interface {
	SetExternalID(ctx context.Context, id, externalID string) error
}

// TrainingStore is the slice of the training repository the facade needs.
type TrainingStore interface {
	CreateWithJob(ctx context.Context, training *models.Training, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Training, error)
	List(ctx context.Context, limit, offset int) ([]*models.Training, error)
	FailTraining(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error)
}

// TrainingRequest is a request to train a new model.
type TrainingRequest struct {
	Name          string `json:"name"`
	ImagesPath    string `json:"images_path"`
	LabelsPath    string `json:"labels_path"`
	Configuration string `json:"configuration"`
	FoldIndex     int    `json:"fold_index"`
}

// TrainingService validates training requests and drives them through
// record creation and scheduler submission.
type TrainingService struct {
	trainings      TrainingStore
	jobs           JobBinder
	renderer       ScriptRenderer
	scheduler      Scheduler
	modelsBasePath string
}

// NewTrainingService creates a training submission facade.
func NewTrainingService(trainings TrainingStore, jobs JobBinder, renderer ScriptRenderer, scheduler Scheduler, modelsBasePath string) *TrainingService {
	return &TrainingService{
		trainings:      trainings,
		jobs:           jobs,
		renderer:       renderer,
		scheduler:      scheduler,
		modelsBasePath: modelsBasePath,
	}
}

// Submit creates the training and job records at PENDING, submits the
// rendered script, and records the external job id. A submission failure
// marks both records FAILED and is returned to the caller.
func (s *TrainingService) Submit(ctx context.Context, req *TrainingRequest) (*models.Training, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	modelPath := path.Join(s.modelsBasePath, req.Name)
	script, err := s.renderer.Render(TrainingTemplate, map[string]string{
		"name":          req.Name,
		"images_path":   req.ImagesPath,
		"labels_path":   req.LabelsPath,
		"model_path":    modelPath,
		"configuration": req.Configuration,
		"fold":          strconv.Itoa(req.FoldIndex),
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	job := &models.Job{
		ID:               uuid.New().String(),
		JobType:          models.JobTypeTraining,
		Status:           models.JobStatusPending,
		SubmissionScript: script,
	}
	training := &models.Training{
		ID:            uuid.New().String(),
		Name:          req.Name,
		ImagesPath:    req.ImagesPath,
		LabelsPath:    req.LabelsPath,
		ModelPath:     modelPath,
		Configuration: req.Configuration,
		FoldIndex:     req.FoldIndex,
		JobID:         job.ID,
		Status:        models.TrainingStatusTraining,
		StartTime:     &now,
	}

	if err := s.trainings.CreateWithJob(ctx, training, job); err != nil {
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
		"training_id": training.ID,
		"job_id":      job.ID,
		"external_id": externalID,
	}).Info("Training submitted")
	return training, nil
}

// Get retrieves a training by id.
func (s *TrainingService) Get(ctx context.Context, id string) (*models.Training, error) {
	training, err := s.trainings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if training == nil {
		return nil, &NotFoundError{Kind: "training", ID: id}
	}
	return training, nil
}

// List returns trainings, newest first.
func (s *TrainingService) List(ctx context.Context, limit, offset int) ([]*models.Training, error) {
	return s.trainings.List(ctx, limit, offset)
}

func (s *TrainingService) markSubmitFailed(ctx context.Context, jobID string, cause error) {
	now := time.Now()
	if _, err := s.trainings.FailTraining(ctx, jobID, nil, &now, cause.Error()); err != nil {
		log.WithError(err).WithField("job_id", jobID).Error("Failed to record submission failure")
	}
}

func (r *TrainingRequest) validate() error {
	switch {
	case r.Name == "":
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	case r.ImagesPath == "":
		return &ValidationError{Field: "images_path", Reason: "must not be empty"}
	case r.LabelsPath == "":
		return &ValidationError{Field: "labels_path", Reason: "must not be empty"}
	case r.Configuration == "":
		return &ValidationError{Field: "configuration", Reason: "must not be empty"}
	case r.FoldIndex < 0:
		return &ValidationError{Field: "fold_index", Reason: "must not be negative"}
	}
	return nil
}
