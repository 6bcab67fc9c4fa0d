package models

import "time"

// PostLike records that a user liked a post. A user likes a post at most once.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Local     bool      `gorm:"not null;default:true" json:"local"`
	CreatedAt time.Time `json:"created"`
}

// CommentLike records that a user liked a comment.
type CommentLike struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Local     bool      `gorm:"not null;default:true" json:"local"`
	CreatedAt time.Time `json:"created"`
}
