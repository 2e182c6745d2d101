package slurm

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	stdout   string
	stderr   string
	exitCode int
	err      error

	lastName string
	lastArgs []string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, int, error) {
	r.lastName = name
	r.lastArgs = args
	return r.stdout, r.stderr, r.exitCode, r.err
}

func TestSubmitReturnsExternalID(t *testing.T) {
	runner := &fakeRunner{stdout: "Submitted batch job 98765\n"}
	client := NewClient(runner, time.Second)

	id, err := client.Submit(context.Background(), "#!/bin/bash\necho hi\n")
	require.NoError(t, err)
	assert.Equal(t, "98765", id)
	assert.Equal(t, "sbatch", runner.lastName)
}

func TestSubmitNonZeroExit(t *testing.T) {
	runner := &fakeRunner{exitCode: 1, stderr: "sbatch: error: invalid account"}
	client := NewClient(runner, time.Second)

	_, err := client.Submit(context.Background(), "script")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Contains(t, subErr.Error(), "invalid account")
}

func TestSubmitSpawnFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exec: \"sbatch\": executable file not found")}
	client := NewClient(runner, time.Second)

	_, err := client.Submit(context.Background(), "script")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
}

func TestSubmitUnparsableOutput(t *testing.T) {
	runner := &fakeRunner{stdout: "something unexpected"}
	client := NewClient(runner, time.Second)

	_, err := client.Submit(context.Background(), "script")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
}

func TestQueryParsesStatus(t *testing.T) {
	runner := &fakeRunner{stdout: "JobId=42 JobState=RUNNING ExitCode=0:0 StartTime=2025-09-13T12:14:02 EndTime=Unknown"}
	client := NewClient(runner, time.Second)

	info, err := client.Query(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", info.RawState)
	require.NotNil(t, info.StartTime)
	assert.Equal(t, []string{"show", "job", "42"}, runner.lastArgs)
}

func TestQueryVanishedJob(t *testing.T) {
	runner := &fakeRunner{exitCode: 1, stderr: "slurm_load_jobs error: Invalid job id specified"}
	client := NewClient(runner, time.Second)

	info, err := client.Query(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, RawStateNotFound, info.RawState)
	require.NotNil(t, info.EndTime, "vanished jobs get a completion time")
}

func TestQueryTimeoutIsTransient(t *testing.T) {
	runner := &fakeRunner{err: errors.Wrap(context.DeadlineExceeded, "command scontrol timed out")}
	client := NewClient(runner, time.Second)

	_, err := client.Query(context.Background(), "42")
	var transient *TransientQueryError
	require.ErrorAs(t, err, &transient)
	assert.Equal(t, "42", transient.ExternalID)
}
