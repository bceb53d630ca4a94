// Package repository provides PostgreSQL persistence for games, feature
// vectors, predictions and model artifacts.
package repository

import (
	"fmt"

	"github.com/yourusername/hoopscore/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Game       GameRepository
	Feature    FeatureRepository
	Prediction PredictionRepository
	Model      ModelRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Game:       NewPostgresGameRepository(db),
		Feature:    NewPostgresFeatureRepository(db),
		Prediction: NewPostgresPredictionRepository(db),
		Model:      NewPostgresModelRepository(db),
	}, nil
}
