package models

import "time"

// Job represents one submission to the external batch scheduler and its
// tracked lifecycle. Jobs are created by the submission facades at PENDING
// and afterwards mutated only by the job monitors.
type Job struct {
	ID               string
	ExternalID       *string // scheduler-assigned id, nil until submission succeeds
	JobType          JobType
	Status           JobStatus
	StartTime        *time.Time
	EndTime          *time.Time
	ErrorMessage     *string
	SubmissionScript string // exact rendered script, kept for audit/replay
	UnknownCount     int    // consecutive unrecognized scheduler observations
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// JobType represents the kind of work a job performs
type JobType string

const (
	JobTypeTraining   JobType = "TRAINING"
	JobTypeInference  JobType = "INFERENCE"
	JobTypeEvaluation JobType = "EVALUATION"
)

// JobStatus represents the current status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// Terminal reports whether the status accepts no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Monitorable reports whether jobs in this status are picked up by the
// polling loop.
func (s JobStatus) Monitorable() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// ValidTransition reports whether moving from one status to another is
// allowed. Observed sequences must form a subsequence of
// PENDING -> RUNNING -> {COMPLETED | FAILED}; a scheduler may report a
// terminal state before RUNNING was ever observed, so PENDING may jump
// straight to either terminal status.
func ValidTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case JobStatusPending:
		return to == JobStatusRunning || to == JobStatusCompleted || to == JobStatusFailed
	case JobStatusRunning:
		return to == JobStatusCompleted || to == JobStatusFailed
	default:
		return false
	}
}
