package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hearth/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "test payload"))
	assert.NoError(t, n.PublishNotification(context.Background(), &models.Notification{RecipientID: 1}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishUser(context.Background(), 1, "x"))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_PublishNotification(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel(42))
	defer func() { _ = sub.Close() }()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	notif := &models.Notification{
		ID:          3,
		RecipientID: 42,
		Kind:        models.NotificationKindPostReply,
		ReplyID:     11,
		PostID:      5,
		TitleKey:    models.MessageNotificationTitlePostReply,
		TitleParams: map[string]string{"post_title": "Hello"},
		Unseen:      true,
	}
	require.NoError(t, n.PublishNotification(ctx, notif))

	select {
	case msg := <-sub.Channel():
		var evt struct {
			Type string              `json:"type"`
			Data models.Notification `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &evt))
		assert.Equal(t, EventNotificationCreated, evt.Type)
		assert.Equal(t, uint(11), evt.Data.ReplyID)
		assert.Equal(t, "Hello", evt.Data.TitleParams["post_title"])
	case <-time.After(time.Second):
		t.Fatal("notification was not published")
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	n := NewNotifier(rdb)
	events, err := n.Subscribe(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, n.PublishUser(context.Background(), 8, "someone else"))
	require.NoError(t, n.PublishUser(context.Background(), 7, "for seven"))

	select {
	case payload := <-events:
		assert.Equal(t, "for seven", payload)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the payload")
	}

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok, "channel closes once the context ends")
	case <-time.After(time.Second):
		t.Fatal("subscription did not stop")
	}
}

func TestNotifier_SubscribeWithoutRedis(t *testing.T) {
	t.Parallel()
	_, err := NewNotifier(nil).Subscribe(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNoBroker)
}
