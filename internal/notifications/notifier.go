// Package notifications publishes notification events to per-user Redis
// channels for live delivery.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"

	"hearth/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventNotificationCreated is the event type for a freshly stored notification.
const EventNotificationCreated = "notification_created"

// ErrNoBroker is returned by Subscribe when Redis is not configured.
var ErrNoBroker = errors.New("live notifications need redis")

// Event is the envelope published on a user channel.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishNotification announces a stored notification to its recipient.
func (n *Notifier) PublishNotification(ctx context.Context, notif *models.Notification) error {
	payload, err := json.Marshal(Event{Type: EventNotificationCreated, Data: notif})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.PublishUser(ctx, notif.RecipientID, string(payload))
}

// Subscribe relays every payload published on the user's channel until ctx
// ends. The returned channel is closed when the subscription stops.
func (n *Notifier) Subscribe(ctx context.Context, userID uint) (<-chan string, error) {
	if n == nil || n.rdb == nil {
		return nil, ErrNoBroker
	}
	sub := n.rdb.Subscribe(ctx, UserChannel(userID))
	// Wait for the confirmation so nothing published after return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan string, 16)
	ch := sub.Channel()
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in notification subscriber", "user_id", userID, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
