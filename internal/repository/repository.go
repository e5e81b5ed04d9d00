package repository

import (
	"context"

	"github.com/pkg/errors"

	"bimsight/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Repository defines the interface for captured session data
type Repository interface {
	// Write operations
	SaveSample(ctx context.Context, sample *domain.Sample) error
	DeleteSession(ctx context.Context, sessionID string) (int64, error)

	// Read operations
	GetSample(ctx context.Context, id string) (*domain.Sample, error)
	ListSamples(ctx context.Context, sessionID string, limit int) ([]*domain.Sample, error)
	ListSessions(ctx context.Context) ([]domain.SessionInfo, error)
	Summary(ctx context.Context, sessionID string) (*domain.Summary, error)

	// Close releases resources
	Close() error
}
