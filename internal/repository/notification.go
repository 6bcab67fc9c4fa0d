package repository

import (
	"context"

	"hearth/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error)
	ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkSeen(ctx context.Context, userID uint, ids []uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateIfAbsent inserts n unless a notification for the same (kind, reply)
// exists, reporting whether it inserted.
func (r *notificationRepository) CreateIfAbsent(ctx context.Context, n *models.Notification) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "reply_id"}},
			DoNothing: true,
		}).
		Create(n)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 40
	}
	var out []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// MarkSeen clears the unseen flag on the given notifications, or on all of
// the user's notifications when ids is empty.
func (r *notificationRepository) MarkSeen(ctx context.Context, userID uint, ids []uint) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND unseen", userID)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Update("unseen", false)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
