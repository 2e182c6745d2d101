// Package poller reconciles external scheduler state with persisted job
// records and applies terminal side effects exactly once.
package poller

import (
	"seg-orchestrator/core/models"
	"seg-orchestrator/core/slurm"
)

// Action is the reconciliation decision for one observation.
type Action int

const (
	// ActionNone: nothing to do; terminal job, unchanged state, or a
	// backward transition the state machine forbids.
	ActionNone Action = iota
	// ActionMarkRunning: first RUNNING observation, record start time.
	ActionMarkRunning
	// ActionComplete: first COMPLETED observation, run the completion
	// side effect.
	ActionComplete
	// ActionFail: first FAILED observation, run the failure side effect.
	ActionFail
	// ActionUnknown: raw state outside the mapping vocabulary; count it
	// toward reconciliation exhaustion.
	ActionUnknown
)

// Outcome pairs the decided action with the status it leads to.
type Outcome struct {
	Action Action
	Next   models.JobStatus
}

// Reconcile maps one raw scheduler observation onto the internal state
// machine. It is a pure function of its inputs.
func Reconcile(current models.JobStatus, rawState string, mapping *slurm.StateMapping) Outcome {
	if current.Terminal() {
		return Outcome{Action: ActionNone, Next: current}
	}

	mapped, ok := mapping.Map(rawState)
	if !ok {
		return Outcome{Action: ActionUnknown, Next: current}
	}

	if mapped == current || !models.ValidTransition(current, mapped) {
		return Outcome{Action: ActionNone, Next: current}
	}

	switch mapped {
	case models.JobStatusRunning:
		return Outcome{Action: ActionMarkRunning, Next: mapped}
	case models.JobStatusCompleted:
		return Outcome{Action: ActionComplete, Next: mapped}
	case models.JobStatusFailed:
		return Outcome{Action: ActionFail, Next: mapped}
	default:
		return Outcome{Action: ActionNone, Next: current}
	}
}
