package models

import "time"

// Community is a named discussion group, hosted here (Local) or on a remote instance.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null;uniqueIndex:idx_communities_name_host" json:"name"`
	Host        string    `gorm:"size:255;not null;uniqueIndex:idx_communities_name_host" json:"host"`
	Local       bool      `gorm:"not null;index" json:"local"`
	APID        *string   `gorm:"column:ap_id;uniqueIndex" json:"remote_url,omitempty"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// CommunityModerator grants a local user moderation rights over a local community.
// CreatedAt is the seniority key: earlier appointments outrank later ones.
type CommunityModerator struct {
	CommunityID uint       `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID" json:"-"`
	UserID      uint       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"moderator_since"`
}

// OutranksModerator reports whether m was appointed strictly before other.
func (m *CommunityModerator) OutranksModerator(other *CommunityModerator) bool {
	return m.CreatedAt.Before(other.CreatedAt)
}
