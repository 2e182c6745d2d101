package repository

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"seg-orchestrator/core/models"
)

const modelColumns = `id, training_id, model_name, model_path, created_at`

// ModelRepository handles read access to the model catalogue. Model rows
// are only ever created by the training completion transaction.
type ModelRepository struct {
	db *DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Get retrieves a model by id.
func (r *ModelRepository) Get(ctx context.Context, id string) (*models.Model, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM model WHERE id = $1`, id)
	return scanModel(row)
}

// GetByName retrieves a model by its catalogue name.
func (r *ModelRepository) GetByName(ctx context.Context, name string) (*models.Model, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+modelColumns+` FROM model WHERE model_name = $1`, name)
	return scanModel(row)
}

// List returns models ordered newest first.
func (r *ModelRepository) List(ctx context.Context, limit, offset int) ([]*models.Model, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+modelColumns+` FROM model ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list models")
	}
	defer rows.Close()

	var result []*models.Model
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, model)
	}
	return result, rows.Err()
}

func scanModel(row rowScanner) (*models.Model, error) {
	var model models.Model
	var path sql.NullString

	err := row.Scan(&model.ID, &model.TrainingID, &model.Name, &path, &model.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan model")
	}

	model.Path = path.String
	return &model, nil
}
