package slurm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seg-orchestrator/core/models"
)

const sampleStatusOutput = `JobId=4217 JobName=m1-train
   UserId=mluser(1000) GroupId=mluser(1000)
   JobState=RUNNING Reason=None Dependency=(null)
   ExitCode=0:0
   StartTime=2025-09-13T12:14:02 EndTime=Unknown`

func TestParseStatusOutput(t *testing.T) {
	fields, err := ParseStatusOutput(sampleStatusOutput)
	require.NoError(t, err)

	assert.Equal(t, "4217", fields["JobId"])
	assert.Equal(t, "RUNNING", fields["JobState"])
	assert.Equal(t, "0:0", fields["ExitCode"])
	assert.Equal(t, "2025-09-13T12:14:02", fields["StartTime"])
}

func TestParseStatusOutputEmpty(t *testing.T) {
	_, err := ParseStatusOutput("   \n  ")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	fields, err := ParseStatusOutput(sampleStatusOutput)
	require.NoError(t, err)

	info := Summarize(fields)
	assert.Equal(t, "4217", info.ExternalID)
	assert.Equal(t, "RUNNING", info.RawState)
	require.NotNil(t, info.StartTime)
	assert.Equal(t, time.Date(2025, 9, 13, 12, 14, 2, 0, time.UTC), *info.StartTime)
	assert.Nil(t, info.EndTime)
	assert.Empty(t, info.Reason, "placeholder reason must be dropped")
}

func TestExtractExternalID(t *testing.T) {
	id, err := ExtractExternalID("Submitted batch job 123456\n")
	require.NoError(t, err)
	assert.Equal(t, "123456", id)

	_, err = ExtractExternalID("sbatch: error: invalid partition")
	assert.Error(t, err)
}

func TestParseTimestampPlaceholders(t *testing.T) {
	for _, value := range []string{"", "Unknown", "N/A", "(null)", "None"} {
		assert.Nil(t, ParseTimestamp(value), value)
	}
	require.NotNil(t, ParseTimestamp("2025-09-13T12:14:02"))
}

func TestErrorMessage(t *testing.T) {
	info := &JobInfo{RawState: "OUT_OF_MEMORY", ExitCode: "1:0", Reason: "OutOfMemory"}
	msg := info.ErrorMessage()

	assert.Contains(t, msg, "scheduler state: OUT_OF_MEMORY")
	assert.Contains(t, msg, "exit code: 1:0")
	assert.Contains(t, msg, "job ran out of memory")
}

func TestDefaultStateMapping(t *testing.T) {
	mapping := DefaultStateMapping()

	cases := map[string]models.JobStatus{
		"PENDING":       models.JobStatusPending,
		"RUNNING":       models.JobStatusRunning,
		"SUSPENDED":     models.JobStatusRunning,
		"COMPLETED":     models.JobStatusCompleted,
		"NOT_FOUND":     models.JobStatusCompleted,
		"FAILED":        models.JobStatusFailed,
		"TIMEOUT":       models.JobStatusFailed,
		"OUT_OF_MEMORY": models.JobStatusFailed,
	}
	for raw, want := range cases {
		got, ok := mapping.Map(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := mapping.Map("SOME_NEW_STATE")
	assert.False(t, ok)
}
