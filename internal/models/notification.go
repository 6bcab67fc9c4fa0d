package models

import "time"

// NotificationKind distinguishes what a notification points at.
type NotificationKind string

const (
	// NotificationKindPostReply is a top-level comment on the recipient's post.
	NotificationKindPostReply NotificationKind = "post_reply"
	// NotificationKindReplyReply is a reply to the recipient's comment.
	NotificationKindReplyReply NotificationKind = "reply_reply"
)

// Notification is created once per qualifying reply and never mutated except
// for the Unseen flag.
type Notification struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	RecipientID     uint              `gorm:"not null;index" json:"-"`
	Kind            NotificationKind  `gorm:"type:varchar(32);not null;uniqueIndex:idx_notifications_kind_reply" json:"type"`
	ReplyID         uint              `gorm:"not null;uniqueIndex:idx_notifications_kind_reply" json:"reply_id"`
	PostID          uint              `gorm:"not null" json:"post_id"`
	ParentCommentID *uint             `json:"comment_id,omitempty"`
	TitleKey        MessageKey        `gorm:"type:varchar(64);not null" json:"title_key"`
	TitleParams     map[string]string `gorm:"serializer:json" json:"title_params"`
	Unseen          bool              `gorm:"not null;default:true" json:"unseen"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Title returns the display template for the notification.
func (n *Notification) Title() Message {
	return Message{Key: n.TitleKey, Params: n.TitleParams}
}
