// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a local account or a remote actor known through federation.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:64;not null;uniqueIndex:idx_users_username_host" json:"username"`
	Host          string    `gorm:"size:255;not null;uniqueIndex:idx_users_username_host" json:"host"`
	Local         bool      `gorm:"not null;index" json:"local"`
	APID          *string   `gorm:"column:ap_id;uniqueIndex" json:"remote_url,omitempty"`
	Email         *string   `gorm:"size:254;index" json:"-"`
	PasswordHash  *string   `json:"-"`
	IsAdmin       bool      `gorm:"not null;default:false" json:"is_admin"`
	Suspended     bool      `gorm:"not null;default:false" json:"suspended"`
	AvatarMediaID *string   `gorm:"size:36" json:"-"`
	Description   string    `gorm:"type:text" json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasPassword reports whether a password hash has been set.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// HasAvatar reports whether the user has an avatar attached.
func (u *User) HasAvatar() bool {
	return u.AvatarMediaID != nil && *u.AvatarMediaID != ""
}
