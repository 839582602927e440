package storage

import (
	"context"
	"time"

	"github.com/terra-clan/consult-portal/internal/models"
)

// DraftRepository persists unsaved intake stage drafts, one per user and stage
type DraftRepository interface {
	SaveDraft(ctx context.Context, draft *models.StageDraft) error
	// GetDraft returns nil, nil when no draft exists
	GetDraft(ctx context.Context, userID string, stage int) (*models.StageDraft, error)
	ListDrafts(ctx context.Context, userID string) ([]*models.StageDraft, error)
	DeleteDraft(ctx context.Context, userID string, stage int) error
	DeleteDraftsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
