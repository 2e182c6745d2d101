package submission

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/template"
)

type fakeModelCatalogue struct {
	models map[string]*models.Model
}

func (c *fakeModelCatalogue) Get(ctx context.Context, id string) (*models.Model, error) {
	return c.models[id], nil
}

type fakeInferenceStore struct {
	created     *models.Inference
	createdJob  *models.Job
	failedJobID string
}

func (s *fakeInferenceStore) CreateWithJob(ctx context.Context, inference *models.Inference, job *models.Job) error {
	s.created = inference
	s.createdJob = job
	return nil
}

func (s *fakeInferenceStore) Get(ctx context.Context, id string) (*models.Inference, error) {
	if s.created != nil && s.created.ID == id {
		return s.created, nil
	}
	return nil, nil
}

func (s *fakeInferenceStore) FailInference(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error) {
	s.failedJobID = jobID
	return true, nil
}

func inferenceRenderer() *template.Renderer {
	return template.NewRendererFromMap(map[string]string{
		InferenceTemplate: "predict --model {{model_path}} --in {{input_path}} --out {{output_path}}",
	})
}

func m1Catalogue() *fakeModelCatalogue {
	return &fakeModelCatalogue{models: map[string]*models.Model{
		"model-1": {ID: "model-1", TrainingID: "tr-1", Name: "m1_model", Path: "/models/m1"},
	}}
}

func TestInferenceSubmit(t *testing.T) {
	store := &fakeInferenceStore{}
	binder := &fakeBinder{}
	scheduler := &stubScheduler{externalID: "55001"}

	service := NewInferenceService(store, m1Catalogue(), binder, inferenceRenderer(), scheduler)
	inference, err := service.Submit(context.Background(), &InferenceRequest{
		ModelID:   "model-1",
		InputPath: "/scans/patient-42",
	})
	require.NoError(t, err)

	assert.Equal(t, "model-1", inference.ModelID)
	assert.Equal(t, models.WorkflowStatusPending, inference.Status)
	expectedPrefix := fmt.Sprintf("/models/m1/inference/%s-", store.createdJob.ID)
	assert.Contains(t, inference.OutputPath, expectedPrefix,
		"output path embeds the job id so concurrent predictions never collide")

	assert.Contains(t, scheduler.script, "--model /models/m1")
	assert.Contains(t, scheduler.script, "--out "+inference.OutputPath)
	assert.Equal(t, "55001", binder.externalID)
}

func TestInferenceSubmitUnknownModel(t *testing.T) {
	service := NewInferenceService(&fakeInferenceStore{}, m1Catalogue(), &fakeBinder{}, inferenceRenderer(), &stubScheduler{})

	_, err := service.Submit(context.Background(), &InferenceRequest{
		ModelID:   "no-such-model",
		InputPath: "/scans/patient-42",
	})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "model", notFound.Kind)
}

func TestInferenceRequestValidation(t *testing.T) {
	service := NewInferenceService(&fakeInferenceStore{}, m1Catalogue(), &fakeBinder{}, inferenceRenderer(), &stubScheduler{})

	_, err := service.Submit(context.Background(), &InferenceRequest{InputPath: "/scans/p"})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "model_id", invalid.Field)

	_, err = service.Submit(context.Background(), &InferenceRequest{ModelID: "model-1"})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "input_path", invalid.Field)
}
