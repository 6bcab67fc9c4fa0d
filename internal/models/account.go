package models

import "time"

// ForgotPasswordKey is a single-use password reset token.
type ForgotPasswordKey struct {
	Key       string    `gorm:"column:token;primaryKey;size:64" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// ValidAt reports whether the key can still be used at now.
func (k *ForgotPasswordKey) ValidAt(now time.Time) bool {
	return now.Before(k.ExpiresAt)
}

// Media is an uploaded file referenced by ID. The row can outlive the stored
// bytes, in which case the media is reported missing.
type Media struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Path        string    `gorm:"not null" json:"-"`
	MimeType    string    `gorm:"size:100;not null" json:"mime_type"`
	ImageFormat string    `gorm:"size:16" json:"image_format,omitempty"` // sniffed at upload; empty for non-images
	Size        int64     `gorm:"not null" json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Media) TableName() string {
	return "media"
}
