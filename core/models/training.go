package models

import "time"

// Training represents a user-initiated model training request, linked 1:1
// to the Job that runs it on the scheduler.
type Training struct {
	ID            string
	Name          string
	ImagesPath    string
	LabelsPath    string
	ModelPath     string // output directory the trained model is written to
	Configuration string // training configuration identifier, e.g. "3d_fullres"
	FoldIndex     int
	JobID         string
	Status        TrainingStatus
	ErrorMessage  *string
	StartTime     *time.Time
	EndTime       *time.Time
}

// TrainingStatus represents the status of a training workflow
type TrainingStatus string

const (
	TrainingStatusTraining TrainingStatus = "TRAINING"
	TrainingStatusTrained  TrainingStatus = "TRAINED"
	TrainingStatusFailed   TrainingStatus = "FAILED"
)

// Model is the catalogue entry created when a training job completes.
// Exactly one Model exists per successful Training; it is immutable after
// creation.
type Model struct {
	ID         string
	TrainingID string
	Name       string
	Path       string
	CreatedAt  time.Time
}

// ModelNameFor returns the deterministic model name derived from a
// training name.
func ModelNameFor(trainingName string) string {
	return trainingName + "_model"
}
