package slurm

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"seg-orchestrator/core/models"
)

// RawStateNotFound is the synthetic raw state reported when the scheduler
// no longer knows a job id. Jobs leave the queue shortly after finishing,
// so the default mapping treats it as successful completion.
const RawStateNotFound = "NOT_FOUND"

// StateMapping translates scheduler-specific raw states into internal job
// statuses. The vocabulary is configuration, not hard-coded scheduler
// assumptions.
type StateMapping struct {
	states map[string]models.JobStatus
}

// DefaultStateMapping covers the standard Slurm state vocabulary.
func DefaultStateMapping() *StateMapping {
	return &StateMapping{states: map[string]models.JobStatus{
		"PENDING":     models.JobStatusPending,
		"CONFIGURING": models.JobStatusPending,
		"REQUEUED":    models.JobStatusPending,

		"RUNNING":    models.JobStatusRunning,
		"COMPLETING": models.JobStatusRunning,
		"SUSPENDED":  models.JobStatusRunning,
		"STAGE_OUT":  models.JobStatusRunning,

		"COMPLETED":      models.JobStatusCompleted,
		RawStateNotFound: models.JobStatusCompleted,

		"FAILED":        models.JobStatusFailed,
		"BOOT_FAIL":     models.JobStatusFailed,
		"CANCELLED":     models.JobStatusFailed,
		"DEADLINE":      models.JobStatusFailed,
		"NODE_FAIL":     models.JobStatusFailed,
		"OUT_OF_MEMORY": models.JobStatusFailed,
		"PREEMPTED":     models.JobStatusFailed,
		"TIMEOUT":       models.JobStatusFailed,
	}}
}

// LoadStateMapping reads a raw-state mapping table from a yaml file of the
// form `states: {RUNNING: RUNNING, ...}`.
func LoadStateMapping(path string) (*StateMapping, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read state mapping %s", path)
	}

	var file struct {
		States map[string]string `yaml:"states"`
	}
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse state mapping %s", path)
	}
	if len(file.States) == 0 {
		return nil, errors.Errorf("state mapping %s defines no states", path)
	}

	states := make(map[string]models.JobStatus, len(file.States))
	for raw, status := range file.States {
		switch models.JobStatus(status) {
		case models.JobStatusPending, models.JobStatusRunning, models.JobStatusCompleted, models.JobStatusFailed:
			states[raw] = models.JobStatus(status)
		default:
			return nil, errors.Errorf("state mapping %s: unknown internal status %q for raw state %q", path, status, raw)
		}
	}
	return &StateMapping{states: states}, nil
}

// Map translates a raw scheduler state. The second return value is false
// for states outside the configured vocabulary.
func (m *StateMapping) Map(raw string) (models.JobStatus, bool) {
	status, ok := m.states[raw]
	return status, ok
}
