package models

import "time"

// Inference represents a prediction request against a trained model,
// linked 1:1 to the Job that runs it.
type Inference struct {
	ID           string
	ModelID      string
	JobID        string
	InputPath    string
	OutputPath   string // per-job-unique output location for the result payload
	Prediction   []byte // JSON result payload, attached on completion
	Status       WorkflowStatus
	ErrorMessage *string
	StartTime    *time.Time
	EndTime      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Evaluation represents a model evaluation request over a labelled dataset.
type Evaluation struct {
	ID             string
	ModelID        string
	JobID          string
	EvaluationPath string
	Configurations []string
	OutputPath     string
	Results        []byte // structured metrics payload, attached on completion
	Status         WorkflowStatus
	ErrorMessage   *string
	StartTime      *time.Time
	EndTime        *time.Time
}

// WorkflowStatus is the simplified projection of the linked Job's status
// carried on inference and evaluation records.
type WorkflowStatus string

const (
	WorkflowStatusPending   WorkflowStatus = "PENDING"
	WorkflowStatusCompleted WorkflowStatus = "COMPLETED"
	WorkflowStatusFailed    WorkflowStatus = "FAILED"
)
