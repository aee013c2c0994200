package store

import (
	"context"

	"github.com/nulzo/calx-web/internal/store/model"
)

// Repository is the main contract for the data layer.
type Repository interface {
	Attempts() AttemptRepository

	// transaction support
	WithTx(ctx context.Context, fn func(repo Repository) error) error

	Close() error
}

type AttemptRepository interface {
	// Log stores a finished fetch attempt.
	Log(ctx context.Context, attempt *model.FetchAttempt) error
	// GetRecent returns the last N attempts for a provider, newest first.
	GetRecent(ctx context.Context, providerID string, limit int) ([]model.FetchAttempt, error)
	// GetDailyStats returns attempts grouped by day, provider and outcome.
	GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
}
