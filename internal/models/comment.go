package models

import "time"

// Comment is a reply to a post or to another comment on the same post.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"not null;index" json:"post_id"`
	Post            *Post     `gorm:"foreignKey:PostID" json:"post,omitempty"`
	ParentID        *uint     `gorm:"index" json:"parent_id,omitempty"`
	AuthorID        uint      `gorm:"not null;index" json:"author_id"`
	Author          *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ContentText     *string   `gorm:"type:text" json:"content_text"`
	ContentMarkdown *string   `gorm:"type:text" json:"content_markdown"`
	ContentHTML     *string   `gorm:"type:text" json:"content_html"`
	Local           bool      `gorm:"not null" json:"local"`
	Deleted         bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt       time.Time `json:"created"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Score and YourVote are computed per request
	Score    int64 `gorm:"-" json:"score"`
	YourVote *bool `gorm:"-" json:"your_vote,omitempty"`
}
