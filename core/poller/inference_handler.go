package poller

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/slurm"
)

const predictionFileName = "prediction.json"

// InferenceStore is the slice of the inference repository the handler needs.
type InferenceStore interface {
	GetByJobID(ctx context.Context, jobID string) (*models.Inference, error)
	CompleteInference(ctx context.Context, jobID string, startTime, endTime *time.Time, prediction []byte) (bool, error)
	FailInference(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error)
}

// ResultFetcher retrieves result artifacts written by finished jobs.
type ResultFetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// InferenceHandler finalizes inference jobs. Completion reads the
// prediction file from the job's output location before the status flip,
// so a fetch failure leaves the job non-terminal and the next cycle
// retries the whole transition.
type InferenceHandler struct {
	inferences InferenceStore
	results    ResultFetcher
}

// NewInferenceHandler creates an inference terminal handler.
func NewInferenceHandler(inferences InferenceStore, results ResultFetcher) *InferenceHandler {
	return &InferenceHandler{inferences: inferences, results: results}
}

func (h *InferenceHandler) JobType() models.JobType {
	return models.JobTypeInference
}

func (h *InferenceHandler) HandleCompleted(ctx context.Context, job *models.Job, info *slurm.JobInfo) (bool, error) {
	inference, err := h.inferences.GetByJobID(ctx, job.ID)
	if err != nil {
		return false, err
	}
	if inference == nil {
		return false, errors.Errorf("no inference record for job %s", job.ID)
	}

	prediction, err := h.results.Fetch(ctx, resultURI(inference.OutputPath, predictionFileName))
	if err != nil {
		return false, &SideEffectError{JobID: job.ID, Err: err}
	}
	return h.inferences.CompleteInference(ctx, job.ID, info.StartTime, info.EndTime, prediction)
}

func (h *InferenceHandler) HandleFailed(ctx context.Context, job *models.Job, info *slurm.JobInfo, message string) (bool, error) {
	return h.inferences.FailInference(ctx, job.ID, info.StartTime, info.EndTime, message)
}

// resultURI joins an output location and a file name without mangling the
// scheme of s3:// URIs.
func resultURI(outputPath, name string) string {
	return strings.TrimRight(outputPath, "/") + "/" + name
}
