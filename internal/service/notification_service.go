package service

import (
	"context"
	"log/slog"

	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"
)

// Publisher pushes a stored notification to live listeners.
type Publisher interface {
	PublishNotification(ctx context.Context, n *models.Notification) error
}

// NotificationService turns successful replies into notification records.
type NotificationService struct {
	notifications repository.NotificationRepository
	publisher     Publisher
}

func NewNotificationService(notifications repository.NotificationRepository, publisher Publisher) *NotificationService {
	return &NotificationService{notifications: notifications, publisher: publisher}
}

// DeriveReplyNotification computes the notification a reply produces. parent
// is nil for a top-level comment. It returns nil when the recipient is the
// reply's own author.
func DeriveReplyNotification(post *models.Post, parent, reply *models.Comment) *models.Notification {
	n := &models.Notification{
		ReplyID:     reply.ID,
		PostID:      post.ID,
		TitleParams: map[string]string{"post_title": post.Title},
		Unseen:      true,
	}
	if parent == nil {
		n.RecipientID = post.AuthorID
		n.Kind = models.NotificationKindPostReply
		n.TitleKey = models.MessageNotificationTitlePostReply
	} else {
		n.RecipientID = parent.AuthorID
		n.Kind = models.NotificationKindReplyReply
		n.TitleKey = models.MessageNotificationTitleReplyReply
		n.ParentCommentID = &parent.ID
	}
	if n.RecipientID == reply.AuthorID {
		return nil
	}
	return n
}

// Dispatch stores the notification for reply at most once and publishes it
// when this call created it.
func (s *NotificationService) Dispatch(ctx context.Context, post *models.Post, parent, reply *models.Comment) (*models.Notification, error) {
	n := DeriveReplyNotification(post, parent, reply)
	if n == nil {
		return nil, nil
	}
	created, err := s.notifications.CreateIfAbsent(ctx, n)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	observability.NotificationsDispatched.WithLabelValues(string(n.Kind)).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishNotification(ctx, n); err != nil {
			slog.WarnContext(ctx, "failed to publish notification",
				"notification_id", n.ID, "recipient_id", n.RecipientID, "err", err)
		}
	}
	return n, nil
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	return s.notifications.ListForUser(ctx, userID, limit)
}

// MarkSeen marks the given notifications seen, or all of them when ids is empty.
func (s *NotificationService) MarkSeen(ctx context.Context, userID uint, ids []uint) (int64, error) {
	return s.notifications.MarkSeen(ctx, userID, ids)
}
