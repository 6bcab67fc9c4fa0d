package models

import "time"

// PollState is the lifecycle state of a poll. Closed is terminal.
type PollState string

const (
	PollStateOpen   PollState = "open"
	PollStateClosed PollState = "closed"
)

// Close is the only transition: open and closed both move to closed.
func (s PollState) Close() PollState {
	return PollStateClosed
}

// Poll is a set of named options attached to a post.
type Poll struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;uniqueIndex" json:"post_id"`
	Multiple  bool         `gorm:"not null;default:false" json:"multiple"`
	State     PollState    `gorm:"type:varchar(16);not null;default:'open'" json:"state"`
	ClosesAt  *time.Time   `json:"closes_at,omitempty"`
	Options   []PollOption `gorm:"foreignKey:PollID" json:"options"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// StateAt reports the effective state at now: a poll past its deadline is
// closed even if nobody has closed it explicitly.
func (p *Poll) StateAt(now time.Time) PollState {
	if p.State == PollStateClosed {
		return PollStateClosed
	}
	if p.ClosesAt != nil && !now.Before(*p.ClosesAt) {
		return PollStateClosed
	}
	return PollStateOpen
}

// HasOption reports whether optionID belongs to this poll.
func (p *Poll) HasOption(optionID uint) bool {
	for _, opt := range p.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// PollOption is one choice; (PollID, Name) is unique.
type PollOption struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	PollID   uint   `gorm:"not null;uniqueIndex:idx_poll_options_poll_name" json:"-"`
	Name     string `gorm:"size:200;not null;uniqueIndex:idx_poll_options_poll_name" json:"name"`
	Position int    `gorm:"not null;default:0" json:"-"`

	// Votes is computed at query time
	Votes int64 `gorm:"-" json:"votes"`
}

// PollVote records a user's choice.
type PollVote struct {
	PollID    uint      `gorm:"primaryKey;autoIncrement:false" json:"poll_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	OptionID  uint      `gorm:"primaryKey;autoIncrement:false" json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}
