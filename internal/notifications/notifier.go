// Package notifications publishes inventory change events over Redis
// pub/sub and fans them out to connected websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"homestash/internal/observability"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis pub/sub channel carrying inventory events.
const EventsChannel = "inventory:events"

// ItemEvent describes one change to the inventory, broadcast to listeners.
type ItemEvent struct {
	Action    string    `json:"action"`
	ItemID    uint      `json:"item_id"`
	ItemName  string    `json:"item_name"`
	UserID    uint      `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes item events. Implementations must tolerate being
// called on every write path, so failures are logged and swallowed.
type Notifier interface {
	PublishItemEvent(ctx context.Context, event ItemEvent)
}

type redisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier returns a Notifier backed by Redis pub/sub. A nil
// client yields a no-op notifier.
func NewRedisNotifier(rdb *redis.Client) Notifier {
	return &redisNotifier{rdb: rdb}
}

func (n *redisNotifier) PublishItemEvent(ctx context.Context, event ItemEvent) {
	if n.rdb == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		observability.Logger.Error("Failed to marshal item event",
			slog.String("error", err.Error()))
		return
	}
	if err := n.rdb.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		observability.Logger.Warn("Failed to publish item event",
			slog.String("action", event.Action),
			slog.String("error", err.Error()))
	}
}
