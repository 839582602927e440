// Package session keeps portal sessions in redis. A session carries the
// resolved backend user and the backend token used on their behalf.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/consult-portal/internal/models"
)

const keyPrefix = "portal:session:"

var ErrNotFound = errors.New("session not found")

// Store persists sessions with a TTL
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a session store
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl, now: time.Now}
}

func key(id string) string {
	return keyPrefix + id
}

// Create opens a session for user
func (s *Store) Create(ctx context.Context, user models.User, backendToken string) (*models.Session, error) {
	now := s.now().UTC()
	sess := &models.Session{
		ID:           uuid.New().String(),
		User:         user,
		BackendToken: backendToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, key(sess.ID), payload, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	slog.Info("session created", "user_id", user.ID, "role", user.Role)
	return sess, nil
}

// Get loads a live session
func (s *Store) Get(ctx context.Context, id string) (*models.Session, error) {
	payload, err := s.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Delete ends a session; deleting an unknown session is not an error
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping checks redis connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
