// Package events fans intake and upload notifications out to every open
// stream of a user over redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "portal:events:"

// Event types
const (
	TypeStageSaved     = "intake.stage_saved"
	TypeStageCompleted = "intake.stage_completed"
	TypeUpload         = "upload.progress"
	TypeDocumentRemove = "upload.removed"
)

// Event is one notification for a user
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	UserID    string          `json:"user_id"`
	Stage     int             `json:"stage,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Bus publishes and subscribes to per-user channels
type Bus struct {
	client *redis.Client
}

// NewBus creates an event bus
func NewBus(client *redis.Client) *Bus {
	return &Bus{client: client}
}

func channel(userID string) string {
	return channelPrefix + userID
}

// Publish sends an event to the user's channel
func (b *Bus) Publish(ctx context.Context, userID, eventType string, stage int, payload interface{}) error {
	evt := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		UserID:    userID,
		Stage:     stage,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal event payload: %w", err)
		}
		evt.Payload = raw
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channel(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscription delivers events for one user until closed
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
}

// Subscribe listens on the user's channel. The subscription is active when
// Subscribe returns.
func (b *Bus) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

func (s *Subscription) run() {
	defer close(s.events)
	for msg := range s.pubsub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			slog.Warn("dropping malformed event", "channel", msg.Channel, "error", err)
			continue
		}
		select {
		case s.events <- evt:
		case <-s.done:
			return
		}
	}
}

// Events returns the delivery channel; it is closed after Close
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close stops the subscription
func (s *Subscription) Close() error {
	close(s.done)
	return s.pubsub.Close()
}
