// Package datasource fetches raw game rows from collaborator feeds: a JSON
// file on disk or a JSON HTTP endpoint.
package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/hoopscore/internal/models"
)

// Source supplies raw game rows. Rows are returned as delivered; validation
// happens at ingestion.
type Source interface {
	// FetchGames retrieves every row the feed currently offers
	FetchGames(ctx context.Context) ([]models.RawGame, error)

	// Name returns the name of the source
	Name() string
}

// SourceError represents errors from feed operations
type SourceError struct {
	Source  string // Source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string
	Err     error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
	ErrCodeCircuitOpen       = "circuit_open"
)

var (
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrNotFound          = errors.New("data not found")
	ErrInvalidData       = errors.New("invalid data format")
	ErrServerError       = errors.New("server error")
	ErrCircuitOpen       = errors.New("circuit breaker open")
)

// NewSourceError creates a new feed error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
