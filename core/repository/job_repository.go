package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"seg-orchestrator/core/models"
)

const jobColumns = `id, external_id, job_type, status, start_time, end_time, error_message, submission_script, unknown_count, created_at, updated_at`

// JobRepository handles database operations for jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateTx inserts a job inside an existing transaction so the workflow
// record referencing it can be created atomically alongside.
func (r *JobRepository) CreateTx(ctx context.Context, tx *sql.Tx, job *models.Job) error {
	query := `
		INSERT INTO jobs (id, external_id, job_type, status, error_message, submission_script, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := tx.ExecContext(ctx, query,
		job.ID,
		job.ExternalID,
		job.JobType,
		job.Status,
		job.ErrorMessage,
		job.SubmissionScript,
		now,
	)
	return errors.Wrapf(err, "failed to create job %s", job.ID)
}

// Get retrieves a single job by id.
func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

// ListActive returns the non-terminal jobs of one type that already carry
// an external scheduler id. Jobs without an external id are still being
// submitted (or failed submission) and are never polled.
func (r *JobRepository) ListActive(ctx context.Context, jobType models.JobType) ([]*models.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE job_type = $1 AND status IN ('PENDING', 'RUNNING') AND external_id IS NOT NULL
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, jobType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active jobs")
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetExternalID records the scheduler-assigned id after a successful
// submission. The id is immutable once set.
func (r *JobRepository) SetExternalID(ctx context.Context, id, externalID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET external_id = $2, updated_at = $3 WHERE id = $1 AND external_id IS NULL`,
		id, externalID, time.Now(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to set external id on job %s", id)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.Errorf("job %s already has an external id", id)
	}
	return nil
}

// MarkRunning moves a PENDING job to RUNNING and records the start time.
// The status guard makes the update a no-op when another writer got there
// first.
func (r *JobRepository) MarkRunning(ctx context.Context, id string, startTime time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'RUNNING', start_time = COALESCE(start_time, $2), unknown_count = 0, updated_at = $3
		WHERE id = $1 AND status = 'PENDING'
	`, id, startTime, time.Now())
	return errors.Wrapf(err, "failed to mark job %s running", id)
}

// IncrementUnknown bumps the consecutive-unknown-observation counter and
// returns the new value.
func (r *JobRepository) IncrementUnknown(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE jobs
		SET unknown_count = unknown_count + 1, updated_at = $2
		WHERE id = $1 AND status IN ('PENDING', 'RUNNING')
		RETURNING unknown_count
	`, id, time.Now()).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, errors.Wrapf(err, "failed to increment unknown count for job %s", id)
}

// ResetUnknown clears the unknown-observation counter after a recognized
// scheduler state.
func (r *JobRepository) ResetUnknown(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET unknown_count = 0, updated_at = $2 WHERE id = $1 AND unknown_count > 0`,
		id, time.Now(),
	)
	return errors.Wrapf(err, "failed to reset unknown count for job %s", id)
}

// completeJobTx flips a job to COMPLETED inside a terminal-transition
// transaction. It returns false when the job was already terminal, in
// which case the caller must abandon the transition (and its side effect).
func completeJobTx(ctx context.Context, tx *sql.Tx, id string, startTime, endTime *time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'COMPLETED',
		    start_time = COALESCE(start_time, $2),
		    end_time = COALESCE($3, now()),
		    unknown_count = 0,
		    updated_at = now()
		WHERE id = $1 AND status IN ('PENDING', 'RUNNING')
	`, id, startTime, endTime)
	if err != nil {
		return false, errors.Wrapf(err, "failed to complete job %s", id)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "failed to complete job %s", id)
	}
	return n == 1, nil
}

// failJobTx flips a job to FAILED inside a terminal-transition transaction.
// Same contract as completeJobTx.
func failJobTx(ctx context.Context, tx *sql.Tx, id string, startTime, endTime *time.Time, errorMessage string) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE jobs
		SET status = 'FAILED',
		    start_time = COALESCE(start_time, $2),
		    end_time = COALESCE($3, now()),
		    error_message = $4,
		    unknown_count = 0,
		    updated_at = now()
		WHERE id = $1 AND status IN ('PENDING', 'RUNNING')
	`, id, startTime, endTime, errorMessage)
	if err != nil {
		return false, errors.Wrapf(err, "failed to fail job %s", id)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrapf(err, "failed to fail job %s", id)
	}
	return n == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var externalID, errorMessage sql.NullString
	var startTime, endTime sql.NullTime

	err := row.Scan(
		&job.ID,
		&externalID,
		&job.JobType,
		&job.Status,
		&startTime,
		&endTime,
		&errorMessage,
		&job.SubmissionScript,
		&job.UnknownCount,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan job")
	}

	if externalID.Valid {
		job.ExternalID = &externalID.String
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	if startTime.Valid {
		job.StartTime = &startTime.Time
	}
	if endTime.Valid {
		job.EndTime = &endTime.Time
	}
	return &job, nil
}
