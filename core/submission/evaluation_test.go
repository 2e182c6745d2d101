package submission

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/template"
)

type fakeEvaluationStore struct {
	created     *models.Evaluation
	createdJob  *models.Job
	failedJobID string
}

func (s *fakeEvaluationStore) CreateWithJob(ctx context.Context, evaluation *models.Evaluation, job *models.Job) error {
	s.created = evaluation
	s.createdJob = job
	return nil
}

func (s *fakeEvaluationStore) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	if s.created != nil && s.created.ID == id {
		return s.created, nil
	}
	return nil, nil
}

func (s *fakeEvaluationStore) FailEvaluation(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error) {
	s.failedJobID = jobID
	return true, nil
}

func evaluationRenderer() *template.Renderer {
	return template.NewRendererFromMap(map[string]string{
		EvaluationTemplate: "evaluate --model {{model_path}} --data {{evaluation_path}} --out {{output_path}} --configs {{configurations}}",
	})
}

func TestEvaluationSubmit(t *testing.T) {
	store := &fakeEvaluationStore{}
	binder := &fakeBinder{}
	scheduler := &stubScheduler{externalID: "60077"}

	service := NewEvaluationService(store, m1Catalogue(), binder, evaluationRenderer(), scheduler, "/models")
	evaluation, err := service.Submit(context.Background(), &EvaluationRequest{
		ModelID:        "model-1",
		EvaluationPath: "/data/eval-set",
		Configurations: []string{"3d_fullres", "2d"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowStatusPending, evaluation.Status)
	assert.Contains(t, evaluation.OutputPath, "/models/m1_model/evaluation/")
	assert.Equal(t, []string{"3d_fullres", "2d"}, evaluation.Configurations)

	assert.Contains(t, scheduler.script, "--configs 3d_fullres 2d")
	assert.Contains(t, scheduler.script, "--out "+evaluation.OutputPath)
	assert.Equal(t, store.createdJob.ID, binder.jobID)
	assert.Equal(t, "60077", binder.externalID)
}

func TestEvaluationSubmitSchedulerFailure(t *testing.T) {
	store := &fakeEvaluationStore{}
	scheduler := &stubScheduler{err: errors.New("sbatch: error: invalid partition")}

	service := NewEvaluationService(store, m1Catalogue(), &fakeBinder{}, evaluationRenderer(), scheduler, "/models")
	_, err := service.Submit(context.Background(), &EvaluationRequest{
		ModelID:        "model-1",
		EvaluationPath: "/data/eval-set",
		Configurations: []string{"3d_fullres"},
	})

	require.Error(t, err)
	assert.Equal(t, store.createdJob.ID, store.failedJobID)
}

func TestEvaluationRequestValidation(t *testing.T) {
	service := NewEvaluationService(&fakeEvaluationStore{}, m1Catalogue(), &fakeBinder{}, evaluationRenderer(), &stubScheduler{}, "/models")

	_, err := service.Submit(context.Background(), &EvaluationRequest{
		ModelID:        "model-1",
		EvaluationPath: "/data/eval-set",
	})
	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "configurations", invalid.Field)
}
