package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seg-orchestrator/core/models"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &DB{DB: db}, mock
}

func TestListActiveFiltersSubmittedJobs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJobRepository(db)

	externalID := "4217"
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "external_id", "job_type", "status", "start_time", "end_time",
		"error_message", "submission_script", "unknown_count", "created_at", "updated_at",
	}).AddRow("job-1", externalID, "TRAINING", "RUNNING", now, nil, nil, "#!/bin/bash", 0, now, now)

	mock.ExpectQuery(`SELECT .+ FROM jobs\s+WHERE job_type = \$1 AND status IN \('PENDING', 'RUNNING'\) AND external_id IS NOT NULL`).
		WithArgs("TRAINING").
		WillReturnRows(rows)

	jobs, err := repo.ListActive(context.Background(), models.JobTypeTraining)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].ExternalID)
	assert.Equal(t, externalID, *jobs[0].ExternalID)
	assert.Equal(t, models.JobStatusRunning, jobs[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetExternalIDIsImmutable(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJobRepository(db)

	mock.ExpectExec(`UPDATE jobs SET external_id = \$2.+WHERE id = \$1 AND external_id IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetExternalID(context.Background(), "job-1", "9999")
	assert.Error(t, err, "overwriting an existing external id must be rejected")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementUnknownSkipsTerminalJobs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewJobRepository(db)

	mock.ExpectQuery(`UPDATE jobs\s+SET unknown_count = unknown_count \+ 1`).
		WillReturnError(sql.ErrNoRows)

	count, err := repo.IncrementUnknown(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Zero(t, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteTrainingTransaction(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE jobs\s+SET status = 'COMPLETED'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, name, model_path FROM trainings WHERE job_id = \$1 FOR UPDATE`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "model_path"}).
			AddRow("training-1", "m1", "/models/m1/123"))
	mock.ExpectExec(`UPDATE trainings SET status = 'TRAINED'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO model .+ON CONFLICT \(training_id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	end := time.Now()
	won, err := repo.CompleteTraining(context.Background(), "job-1", nil, &end)
	require.NoError(t, err)
	assert.True(t, won)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteTrainingAlreadyTerminal(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTrainingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE jobs\s+SET status = 'COMPLETED'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	won, err := repo.CompleteTraining(context.Background(), "job-1", nil, nil)
	require.NoError(t, err)
	assert.False(t, won, "a second observation of a terminal job must be a no-op")
	require.NoError(t, mock.ExpectationsWereMet())
}
