package models

import "time"

// Post is a link, text or markdown submission to a community.
type Post struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Title           string     `gorm:"size:300;not null" json:"title"`
	Href            *string    `json:"href"`
	ContentText     *string    `gorm:"type:text" json:"content_text"`
	ContentMarkdown *string    `gorm:"type:text" json:"content_markdown"`
	ContentHTML     *string    `gorm:"type:text" json:"content_html"`
	AuthorID        uint       `gorm:"not null;index" json:"author_id"`
	Author          *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	CommunityID     uint       `gorm:"not null;index" json:"community_id"`
	Community       *Community `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	Local           bool       `gorm:"not null" json:"local"`
	Deleted         bool       `gorm:"not null;default:false" json:"deleted"`
	Sticky          bool       `gorm:"not null;default:false" json:"sticky"`
	Poll            *Poll      `gorm:"foreignKey:PostID" json:"poll,omitempty"`
	CreatedAt       time.Time  `json:"created"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Score and YourVote are computed per request
	Score    int64 `gorm:"-" json:"score"`
	YourVote *bool `gorm:"-" json:"your_vote,omitempty"`
}

// IsLink reports whether the post points at an external href.
func (p *Post) IsLink() bool {
	return p.Href != nil && *p.Href != ""
}
