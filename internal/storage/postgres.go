package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/consult-portal/internal/models"
)

// PostgresRepository implements DraftRepository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 1
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveDraft upserts the draft for (user, stage)
func (r *PostgresRepository) SaveDraft(ctx context.Context, draft *models.StageDraft) error {
	dataJSON, err := json.Marshal(draft.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal draft data: %w", err)
	}

	if draft.UpdatedAt.IsZero() {
		draft.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO intake_drafts (user_id, stage, data, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, stage)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, draft.UserID, draft.Stage, dataJSON, draft.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return nil
}

// GetDraft retrieves the draft for (user, stage)
func (r *PostgresRepository) GetDraft(ctx context.Context, userID string, stage int) (*models.StageDraft, error) {
	query := `
		SELECT user_id, stage, data, updated_at
		FROM intake_drafts
		WHERE user_id = $1 AND stage = $2
	`

	draft, err := scanDraft(r.pool.QueryRow(ctx, query, userID, stage))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

// ListDrafts returns every draft of a user ordered by stage
func (r *PostgresRepository) ListDrafts(ctx context.Context, userID string) ([]*models.StageDraft, error) {
	query := `
		SELECT user_id, stage, data, updated_at
		FROM intake_drafts
		WHERE user_id = $1
		ORDER BY stage
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.StageDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, draft)
	}

	return drafts, rows.Err()
}

// DeleteDraft removes the draft for (user, stage)
func (r *PostgresRepository) DeleteDraft(ctx context.Context, userID string, stage int) error {
	query := `DELETE FROM intake_drafts WHERE user_id = $1 AND stage = $2`
	if _, err := r.pool.Exec(ctx, query, userID, stage); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// DeleteDraftsOlderThan removes drafts untouched since cutoff
func (r *PostgresRepository) DeleteDraftsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM intake_drafts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanDraft(row pgx.Row) (*models.StageDraft, error) {
	var draft models.StageDraft
	var dataJSON []byte

	if err := row.Scan(&draft.UserID, &draft.Stage, &dataJSON, &draft.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(dataJSON, &draft.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft data: %w", err)
	}
	return &draft, nil
}
