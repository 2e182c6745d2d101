package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"seg-orchestrator/core/models"
)

const trainingColumns = `id, name, images_path, labels_path, model_path, configuration, fold_index, job_id, status, error_message, start_time, end_time`

// TrainingRepository handles database operations for training workflow
// records and the transactional terminal transitions of training jobs.
type TrainingRepository struct {
	db      *DB
	jobRepo *JobRepository
}

// NewTrainingRepository creates a new training repository
func NewTrainingRepository(db *DB) *TrainingRepository {
	return &TrainingRepository{db: db, jobRepo: NewJobRepository(db)}
}

// CreateWithJob creates the job record and the training record referencing
// it in one transaction, so neither can exist without the other.
func (r *TrainingRepository) CreateWithJob(ctx context.Context, training *models.Training, job *models.Job) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.jobRepo.CreateTx(ctx, tx, job); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trainings (id, name, images_path, labels_path, model_path, configuration, fold_index, job_id, status, start_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			training.ID,
			training.Name,
			training.ImagesPath,
			training.LabelsPath,
			training.ModelPath,
			training.Configuration,
			training.FoldIndex,
			training.JobID,
			training.Status,
			training.StartTime,
		)
		return errors.Wrapf(err, "failed to create training %s", training.ID)
	})
}

// Get retrieves a training by id.
func (r *TrainingRepository) Get(ctx context.Context, id string) (*models.Training, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trainingColumns+` FROM trainings WHERE id = $1`, id)
	return scanTraining(row)
}

// GetByJobID retrieves the training linked to a job.
func (r *TrainingRepository) GetByJobID(ctx context.Context, jobID string) (*models.Training, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+trainingColumns+` FROM trainings WHERE job_id = $1`, jobID)
	return scanTraining(row)
}

// List returns trainings ordered newest first.
func (r *TrainingRepository) List(ctx context.Context, limit, offset int) ([]*models.Training, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+trainingColumns+` FROM trainings ORDER BY start_time DESC NULLS LAST LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list trainings")
	}
	defer rows.Close()

	var trainings []*models.Training
	for rows.Next() {
		training, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		trainings = append(trainings, training)
	}
	return trainings, rows.Err()
}

// CompleteTraining applies the terminal COMPLETED transition for a training
// job in one transaction: job -> COMPLETED, training -> TRAINED, and the
// model record created. Model creation is idempotent (unique training_id,
// insert-if-absent), so a retried poll cycle after a partial crash is safe.
// Returns false without any write when the job was already terminal.
func (r *TrainingRepository) CompleteTraining(ctx context.Context, jobID string, startTime, endTime *time.Time) (bool, error) {
	won := false
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		ok, err := completeJobTx(ctx, tx, jobID, startTime, endTime)
		if err != nil {
			return err
		}
		if !ok {
			return nil // already terminal, nothing to do
		}

		var trainingID, trainingName, modelPath string
		err = tx.QueryRowContext(ctx,
			`SELECT id, name, model_path FROM trainings WHERE job_id = $1 FOR UPDATE`,
			jobID,
		).Scan(&trainingID, &trainingName, &modelPath)
		if err != nil {
			return errors.Wrapf(err, "no training record for completed job %s", jobID)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE trainings SET status = 'TRAINED', end_time = COALESCE($2, now()) WHERE id = $1`,
			trainingID, endTime,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to mark training %s trained", trainingID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO model (id, training_id, model_name, model_path, created_at)
			VALUES ($1, $2, $3, $4, COALESCE($5, now()))
			ON CONFLICT (training_id) DO NOTHING
		`, uuid.New().String(), trainingID, models.ModelNameFor(trainingName), modelPath, endTime)
		if err != nil {
			return errors.Wrapf(err, "failed to create model for training %s", trainingID)
		}

		log.WithFields(log.Fields{
			"job_id":      jobID,
			"training_id": trainingID,
		}).Info("Training completed, model record created")
		won = true
		return nil
	})
	return won, err
}

// FailTraining applies the terminal FAILED transition: job -> FAILED with
// the error message, training -> FAILED. Returns false without any write
// when the job was already terminal.
func (r *TrainingRepository) FailTraining(ctx context.Context, jobID string, startTime, endTime *time.Time, errorMessage string) (bool, error) {
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
			UPDATE trainings SET status = 'FAILED', error_message = $2, end_time = COALESCE($3, now())
			WHERE job_id = $1
		`, jobID, errorMessage, endTime)
		if err != nil {
			return errors.Wrapf(err, "failed to mark training failed for job %s", jobID)
		}
		won = true
		return nil
	})
	return won, err
}

func scanTraining(row rowScanner) (*models.Training, error) {
	var training models.Training
	var imagesPath, labelsPath, errorMessage sql.NullString
	var startTime, endTime sql.NullTime

	err := row.Scan(
		&training.ID,
		&training.Name,
		&imagesPath,
		&labelsPath,
		&training.ModelPath,
		&training.Configuration,
		&training.FoldIndex,
		&training.JobID,
		&training.Status,
		&errorMessage,
		&startTime,
		&endTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan training")
	}

	training.ImagesPath = imagesPath.String
	training.LabelsPath = labelsPath.String
	if errorMessage.Valid {
		training.ErrorMessage = &errorMessage.String
	}
	if startTime.Valid {
		training.StartTime = &startTime.Time
	}
	if endTime.Valid {
		training.EndTime = &endTime.Time
	}
	return &training, nil
}
