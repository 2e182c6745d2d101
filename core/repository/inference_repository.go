package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
)

const inferenceColumns = `id, model_id, job_id, input_path, output_path, prediction, status, error_message, start_time, end_time, created_at, updated_at`

// InferenceRepository handles database operations for inference workflow
// records.
type InferenceRepository struct {
	db      *DB
	jobRepo *JobRepository
}

// NewInferenceRepository creates a new inference repository
func NewInferenceRepository(db *DB) *InferenceRepository {
	return &InferenceRepository{db: db, jobRepo: NewJobRepository(db)}
}

// CreateWithJob creates the job record and the inference record referencing
// it in one transaction.
func (r *InferenceRepository) CreateWithJob(ctx context.Context, inference *models.Inference, job *models.Job) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.jobRepo.CreateTx(ctx, tx, job); err != nil {
			return err
		}
		now := time.Now()
		inference.CreatedAt = now
		inference.UpdatedAt = now
		_, err := tx.ExecContext(ctx, `
			INSERT INTO inference (id, model_id, job_id, input_path, output_path, status, start_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		`,
			inference.ID,
			inference.ModelID,
			inference.JobID,
			inference.InputPath,
			inference.OutputPath,
			inference.Status,
			inference.StartTime,
			now,
		)
		return errors.Wrapf(err, "failed to create inference %s", inference.ID)
	})
}

// Get retrieves an inference by id.
func (r *InferenceRepository) Get(ctx context.Context, id string) (*models.Inference, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inferenceColumns+` FROM inference WHERE id = $1`, id)
	return scanInference(row)
}

// GetByJobID retrieves the inference linked to a job.
func (r *InferenceRepository) GetByJobID(ctx context.Context, jobID string) (*models.Inference, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inferenceColumns+` FROM inference WHERE job_id = $1`, jobID)
	return scanInference(row)
}

// CompleteInference applies the terminal COMPLETED transition: job ->
// COMPLETED and the result payload attached to the inference record.
// Returns false without any write when the job was already terminal.
func (r *InferenceRepository) CompleteInference(ctx context.Context, jobID string, startTime, endTime *time.Time, prediction []byte) (bool, error) {
	won := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := completeJobTx(ctx, tx, jobID, startTime, endTime)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE inference
			SET status = 'COMPLETED', prediction = $2, end_time = COALESCE($3, now()), updated_at = now()
			WHERE job_id = $1
		`, jobID, prediction, endTime)
		if err != nil {
			return errors.Wrapf(err, "failed to complete inference for job %s", jobID)
		}

		log.WithField("job_id", jobID).Info("Inference completed, result attached")
		won = true
		return nil
	})
	return won, err
}

// FailInference applies the terminal FAILED transition for an inference
// job. Returns false without any write when the job was already terminal.
func (r *InferenceRepository) FailInference(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error) {
	won := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := failJobTx(ctx, tx, jobID, startTime, endTime, errorMessage)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE inference
			SET status = 'FAILED', error_message = $2, end_time = COALESCE($3, now()), updated_at = now()
			WHERE job_id = $1
		`, jobID, errorMessage, endTime)
		if err != nil {
			return errors.Wrapf(err, "failed to mark inference failed for job %s", jobID)
		}
		won = true
		return nil
	})
	return won, err
}

func scanInference(row rowScanner) (*models.Inference, error) {
	var inference models.Inference
	var errorMessage sql.NullString
	var startTime, endTime sql.NullTime

	err := row.Scan(
		&inference.ID,
		&inference.ModelID,
		&inference.JobID,
		&inference.InputPath,
		&inference.OutputPath,
		&inference.Prediction,
		&inference.Status,
		&errorMessage,
		&startTime,
		&endTime,
		&inference.CreatedAt,
		&inference.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan inference")
	}

	if errorMessage.Valid {
		inference.ErrorMessage = &errorMessage.String
	}
	if startTime.Valid {
		inference.StartTime = &startTime.Time
	}
	if endTime.Valid {
		inference.EndTime = &endTime.Time
	}
	return &inference, nil
}
