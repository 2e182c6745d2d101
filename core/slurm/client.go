package slurm

import (
	"context"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// SubmissionError indicates the scheduler rejected or failed to accept a
// job. The caller records the job directly as failed.
type SubmissionError struct {
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job submission failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("job submission failed: %s", e.Reason)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// TransientQueryError indicates the scheduler was unreachable or timed out
// during a status query. No state change results; the job is retried on the
// next poll cycle.
type TransientQueryError struct {
	ExternalID string
	Err        error
}

func (e *TransientQueryError) Error() string {
	return fmt.Sprintf("transient query failure for scheduler job %s: %v", e.ExternalID, e.Err)
}

func (e *TransientQueryError) Unwrap() error { return e.Err }

// Client submits and queries jobs against the Slurm workload manager via
// its CLI. Every invocation is bounded by the configured timeout.
type Client struct {
	runner  CommandRunner
	timeout time.Duration
}

// NewClient creates a scheduler client.
func NewClient(runner CommandRunner, timeout time.Duration) *Client {
	return &Client{runner: runner, timeout: timeout}
}

// Submit writes the rendered script to a temporary file, hands it to
// sbatch, and returns the external job id.
func (c *Client) Submit(ctx context.Context, script string) (string, error) {
	file, err := os.CreateTemp("", "submit-*.sbatch")
	if err != nil {
		return "", &SubmissionError{Reason: "could not create submission file", Err: err}
	}
	defer os.Remove(file.Name())

	if _, err := file.WriteString(script); err != nil {
		file.Close()
		return "", &SubmissionError{Reason: "could not write submission file", Err: err}
	}
	if err := file.Close(); err != nil {
		return "", &SubmissionError{Reason: "could not write submission file", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, exitCode, err := c.runner.Run(ctx, "sbatch", file.Name())
	if err != nil {
		return "", &SubmissionError{Reason: "sbatch did not run", Err: err}
	}
	if exitCode != 0 {
		return "", &SubmissionError{Reason: fmt.Sprintf("sbatch exited with code %d: %s", exitCode, stderr)}
	}

	externalID, err := ExtractExternalID(stdout)
	if err != nil {
		return "", &SubmissionError{Reason: "unparsable sbatch output", Err: err}
	}

	log.WithField("external_id", externalID).Info("Batch job submitted")
	return externalID, nil
}

// Query returns the scheduler's view of a job. An id the scheduler no
// longer knows is reported with the synthetic NOT_FOUND raw state and the
// current time as end time. Spawn failures and timeouts surface as
// TransientQueryError.
func (c *Client) Query(ctx context.Context, externalID string) (*JobInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stdout, stderr, exitCode, err := c.runner.Run(ctx, "scontrol", "show", "job", externalID)
	if err != nil {
		return nil, &TransientQueryError{ExternalID: externalID, Err: err}
	}

	if exitCode != 0 {
		// Finished jobs are dropped from the queue after a while; scontrol
		// then exits non-zero for a perfectly healthy job.
		log.WithFields(log.Fields{
			"external_id": externalID,
			"stderr":      stderr,
		}).Debug("Job no longer known to scheduler")
		now := time.Now()
		return &JobInfo{ExternalID: externalID, RawState: RawStateNotFound, EndTime: &now}, nil
	}

	fields, err := ParseStatusOutput(stdout)
	if err != nil {
		return nil, &TransientQueryError{ExternalID: externalID, Err: err}
	}
	return Summarize(fields), nil
}
