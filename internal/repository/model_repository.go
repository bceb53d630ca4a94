package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/hoopscore/internal/database"
	"github.com/yourusername/hoopscore/internal/models"
)

// PostgresModelRepository implements ModelRepository for PostgreSQL
type PostgresModelRepository struct {
	db *database.DB
}

// NewPostgresModelRepository creates a new model repository
func NewPostgresModelRepository(db *database.DB) ModelRepository {
	return &PostgresModelRepository{db: db}
}

// Create inserts a new model artifact
func (m *PostgresModelRepository) Create(ctx context.Context, model *models.ModelRecord) error {
	query := `
		INSERT INTO models (id, version, features, metrics, artifact, trained_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := m.db.GetPool().Exec(ctx, query,
		model.ID, model.Version, model.Features, []byte(model.Metrics), []byte(model.Artifact), model.TrainedAt, model.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	return nil
}

const selectModelColumns = `
	SELECT id, version, features, metrics, artifact, trained_at, active, created_at
	FROM models
`

// GetByID retrieves a model by ID
func (m *PostgresModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModelRecord, error) {
	model, err := scanModel(m.db.GetPool().QueryRow(ctx, selectModelColumns+`WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return model, nil
}

// GetActive retrieves the model currently used for predictions
func (m *PostgresModelRepository) GetActive(ctx context.Context) (*models.ModelRecord, error) {
	model, err := scanModel(m.db.GetPool().QueryRow(ctx, selectModelColumns+`WHERE active = true`))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active model: %w", err)
	}
	return model, nil
}

// SetActive deactivates all models and activates the specified one
func (m *PostgresModelRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	return m.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE models SET active = false WHERE active = true`); err != nil {
			return fmt.Errorf("failed to deactivate models: %w", err)
		}

		tag, err := tx.Exec(ctx, `UPDATE models SET active = true WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to activate model: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func scanModel(row pgx.Row) (*models.ModelRecord, error) {
	model := &models.ModelRecord{}
	var metrics, artifact []byte
	if err := row.Scan(
		&model.ID, &model.Version, &model.Features, &metrics, &artifact,
		&model.TrainedAt, &model.Active, &model.CreatedAt,
	); err != nil {
		return nil, err
	}
	model.Metrics = metrics
	model.Artifact = artifact
	return model, nil
}
