package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ModelRecord is a persisted predictor artifact.
type ModelRecord struct {
	ID        uuid.UUID       `db:"id" json:"id" validate:"required"`
	Version   string          `db:"version" json:"version" validate:"required"`
	Features  []string        `db:"features" json:"features"`
	Metrics   json.RawMessage `db:"metrics" json:"metrics"`
	Artifact  json.RawMessage `db:"artifact" json:"artifact" validate:"required"`
	TrainedAt time.Time       `db:"trained_at" json:"trained_at" validate:"required"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// IsActive checks if the model is currently active
func (m *ModelRecord) IsActive() bool {
	return m.Active
}

// GetMetric retrieves a metric value from the Metrics JSON
func (m *ModelRecord) GetMetric(name string) (interface{}, error) {
	if m.Metrics == nil {
		return nil, nil
	}

	var metrics map[string]interface{}
	if err := json.Unmarshal(m.Metrics, &metrics); err != nil {
		return nil, err
	}

	return metrics[name], nil
}
