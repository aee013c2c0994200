package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/nulzo/calx-web/internal/store"
	"github.com/nulzo/calx-web/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db       *sqlx.DB // Required for starting new transactions
	executor DB       // Used for actual queries (can be *sqlx.DB or *sqlx.Tx)
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{
		db:       db,
		executor: db,
	}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) WithTx(ctx context.Context, fn func(repo store.Repository) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txRepo := &SqliteRepository{
		db:       r.db,
		executor: tx,
	}

	if err := fn(txRepo); err != nil {
		// attempt rollback, but prioritize original error
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *SqliteRepository) Attempts() store.AttemptRepository {
	return &attemptRepo{db: r.executor}
}

type attemptRepo struct {
	db DB
}

func (r *attemptRepo) Log(ctx context.Context, attempt *model.FetchAttempt) error {
	query := `
	INSERT INTO fetch_attempts (
		id, provider_id, outcome, status_code, model_count, latency_ms, created_at
	) VALUES (
		:id, :provider_id, :outcome, :status_code, :model_count, :latency_ms, :created_at
	)`
	_, err := r.db.NamedExecContext(ctx, query, attempt)
	return err
}

func (r *attemptRepo) GetRecent(ctx context.Context, providerID string, limit int) ([]model.FetchAttempt, error) {
	var attempts []model.FetchAttempt
	query := `SELECT * FROM fetch_attempts WHERE provider_id = ? ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &attempts, query, providerID, limit)
	return attempts, err
}

func (r *attemptRepo) GetDailyStats(ctx context.Context, days int) ([]model.DailyStats, error) {
	var stats []model.DailyStats
	query := `
		SELECT
			DATE(created_at) as date,
			provider_id,
			outcome,
			COUNT(*) as attempts,
			AVG(latency_ms) as avg_latency
		FROM fetch_attempts
		WHERE created_at >= DATE('now', ?)
		GROUP BY date, provider_id, outcome
		ORDER BY date DESC, provider_id, outcome
	`
	// SQLite date offset format is '-7 days'
	err := r.db.SelectContext(ctx, &stats, query, fmt.Sprintf("-%d days", days))
	return stats, err
}
