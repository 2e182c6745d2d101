package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
)

const evaluationColumns = `id, model_id, job_id, evaluation_path, configurations, output_path, results, status, error_message, start_time, end_time`

// EvaluationRepository handles database operations for evaluation workflow
// records.
type EvaluationRepository struct {
	db      *DB
	jobRepo *JobRepository
}

// NewEvaluationRepository creates a new evaluation repository
func NewEvaluationRepository(db *DB) *EvaluationRepository {
	return &EvaluationRepository{db: db, jobRepo: NewJobRepository(db)}
}

// CreateWithJob creates the job record and the evaluation record
// referencing it in one transaction.
func (r *EvaluationRepository) CreateWithJob(ctx context.Context, evaluation *models.Evaluation, job *models.Job) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.jobRepo.CreateTx(ctx, tx, job); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO evaluation (id, model_id, job_id, evaluation_path, configurations, output_path, status, start_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			evaluation.ID,
			evaluation.ModelID,
			evaluation.JobID,
			evaluation.EvaluationPath,
			pq.Array(evaluation.Configurations),
			evaluation.OutputPath,
			evaluation.Status,
			evaluation.StartTime,
		)
		return errors.Wrapf(err, "failed to create evaluation %s", evaluation.ID)
	})
}

// Get retrieves an evaluation by id.
func (r *EvaluationRepository) Get(ctx context.Context, id string) (*models.Evaluation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluation WHERE id = $1`, id)
	return scanEvaluation(row)
}

// GetByJobID retrieves the evaluation linked to a job.
func (r *EvaluationRepository) GetByJobID(ctx context.Context, jobID string) (*models.Evaluation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+evaluationColumns+` FROM evaluation WHERE job_id = $1`, jobID)
	return scanEvaluation(row)
}

// CompleteEvaluation applies the terminal COMPLETED transition: job ->
// COMPLETED and the structured results attached to the evaluation record.
// Returns false without any write when the job was already terminal.
func (r *EvaluationRepository) CompleteEvaluation(ctx context.Context, jobID string, startTime, endTime *time.Time, results []byte) (bool, error) {
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
			UPDATE evaluation
			SET status = 'COMPLETED', results = $2, end_time = COALESCE($3, now())
			WHERE job_id = $1
		`, jobID, results, endTime)
		if err != nil {
			return errors.Wrapf(err, "failed to complete evaluation for job %s", jobID)
		}

		log.WithField("job_id", jobID).Info("Evaluation completed, results attached")
		won = true
		return nil
	})
	return won, err
}

// FailEvaluation applies the terminal FAILED transition for an evaluation
// job. Returns false without any write when the job was already terminal.
func (r *EvaluationRepository) FailEvaluation(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error) {
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
			UPDATE evaluation
			SET status = 'FAILED', error_message = $2, end_time = COALESCE($3, now())
			WHERE job_id = $1
		`, jobID, errorMessage, endTime)
		if err != nil {
			return errors.Wrapf(err, "failed to mark evaluation failed for job %s", jobID)
		}
		won = true
		return nil
	})
	return won, err
}

func scanEvaluation(row rowScanner) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	var errorMessage sql.NullString
	var startTime, endTime sql.NullTime

	err := row.Scan(
		&evaluation.ID,
		&evaluation.ModelID,
		&evaluation.JobID,
		&evaluation.EvaluationPath,
		pq.Array(&evaluation.Configurations),
		&evaluation.OutputPath,
		&evaluation.Results,
		&evaluation.Status,
		&errorMessage,
		&startTime,
		&endTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan evaluation")
	}

	if errorMessage.Valid {
		evaluation.ErrorMessage = &errorMessage.String
	}
	if startTime.Valid {
		evaluation.StartTime = &startTime.Time
	}
	if endTime.Valid {
		evaluation.EndTime = &endTime.Time
	}
	return &evaluation, nil
}
