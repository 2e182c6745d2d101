package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/slurm"
)

func TestReconcile(t *testing.T) {
	mapping := slurm.DefaultStateMapping()

	tests := []struct {
		name     string
		current  models.JobStatus
		rawState string
		want     Outcome
	}{
		{
			name:     "pending job started running",
			current:  models.JobStatusPending,
			rawState: "RUNNING",
			want:     Outcome{Action: ActionMarkRunning, Next: models.JobStatusRunning},
		},
		{
			name:     "pending job completed before a running observation",
			current:  models.JobStatusPending,
			rawState: "COMPLETED",
			want:     Outcome{Action: ActionComplete, Next: models.JobStatusCompleted},
		},
		{
			name:     "pending job failed at submission",
			current:  models.JobStatusPending,
			rawState: "BOOT_FAIL",
			want:     Outcome{Action: ActionFail, Next: models.JobStatusFailed},
		},
		{
			name:     "running job completed",
			current:  models.JobStatusRunning,
			rawState: "COMPLETED",
			want:     Outcome{Action: ActionComplete, Next: models.JobStatusCompleted},
		},
		{
			name:     "running job cancelled",
			current:  models.JobStatusRunning,
			rawState: "CANCELLED",
			want:     Outcome{Action: ActionFail, Next: models.JobStatusFailed},
		},
		{
			name:     "vanished job treated as completed",
			current:  models.JobStatusRunning,
			rawState: slurm.RawStateNotFound,
			want:     Outcome{Action: ActionComplete, Next: models.JobStatusCompleted},
		},
		{
			name:     "same observed status is a no-op",
			current:  models.JobStatusRunning,
			rawState: "RUNNING",
			want:     Outcome{Action: ActionNone, Next: models.JobStatusRunning},
		},
		{
			name:     "still queued is a no-op",
			current:  models.JobStatusPending,
			rawState: "PENDING",
			want:     Outcome{Action: ActionNone, Next: models.JobStatusPending},
		},
		{
			name:     "backwards transition is ignored",
			current:  models.JobStatusRunning,
			rawState: "PENDING",
			want:     Outcome{Action: ActionNone, Next: models.JobStatusRunning},
		},
		{
			name:     "terminal job is never touched",
			current:  models.JobStatusCompleted,
			rawState: "FAILED",
			want:     Outcome{Action: ActionNone, Next: models.JobStatusCompleted},
		},
		{
			name:     "unrecognized scheduler state",
			current:  models.JobStatusRunning,
			rawState: "REQUEUE_FED",
			want:     Outcome{Action: ActionUnknown, Next: models.JobStatusRunning},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.current, tt.rawState, mapping)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	mapping := slurm.DefaultStateMapping()
	first := Reconcile(models.JobStatusPending, "RUNNING", mapping)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Reconcile(models.JobStatusPending, "RUNNING", mapping))
	}
}
