package repository

import (
	"context"
	"time"

	"hearth/internal/models"

	"gorm.io/gorm"
)

// PollRepository defines persistence operations for polls and votes.
type PollRepository interface {
	GetByPostID(ctx context.Context, postID uint) (*models.Poll, error)
	Close(ctx context.Context, pollID uint) error
	ReplaceVotes(ctx context.Context, pollID, userID uint, optionIDs []uint, now time.Time) error
	CountVotes(ctx context.Context, pollID uint) (map[uint]int64, error)
	UserVotes(ctx context.Context, pollID, userID uint) ([]uint, error)
}

type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository returns a new PollRepository implementation.
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

// GetByPostID fails with post_not_poll when the post has no poll.
func (r *pollRepository) GetByPostID(ctx context.Context, postID uint) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("post_id = ?", postID).
		First(&poll).Error
	if err != nil {
		return nil, notFoundAs(err, models.KeyPostNotPoll)
	}
	return &poll, nil
}

// Close is idempotent: closing a closed poll succeeds without change.
func (r *pollRepository) Close(ctx context.Context, pollID uint) error {
	err := r.db.WithContext(ctx).Model(&models.Poll{}).
		Where("id = ?", pollID).
		Update("state", models.PollStateOpen.Close()).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ReplaceVotes swaps the user's votes for optionIDs. The open check is a
// guarded UPDATE on the poll row, which also holds the row lock until commit
// so a concurrent Close cannot interleave.
func (r *pollRepository) ReplaceVotes(ctx context.Context, pollID, userID uint, optionIDs []uint, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Poll{}).
			Where("id = ? AND state = ? AND (closes_at IS NULL OR closes_at > ?)", pollID, models.PollStateOpen, now).
			Update("updated_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewKeyedError(models.KeyPollIsClosed)
		}

		if err := tx.Where("poll_id = ? AND user_id = ?", pollID, userID).Delete(&models.PollVote{}).Error; err != nil {
			return err
		}
		if len(optionIDs) == 0 {
			return nil
		}
		votes := make([]models.PollVote, 0, len(optionIDs))
		for _, id := range optionIDs {
			votes = append(votes, models.PollVote{PollID: pollID, UserID: userID, OptionID: id, CreatedAt: now})
		}
		return tx.Create(&votes).Error
	})
	if err != nil {
		if models.KeyOf(err) != "" {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pollRepository) CountVotes(ctx context.Context, pollID uint) (map[uint]int64, error) {
	var rows []struct {
		OptionID uint
		Count    int64
	}
	err := r.db.WithContext(ctx).Model(&models.PollVote{}).
		Select("option_id, COUNT(*) AS count").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.OptionID] = row.Count
	}
	return out, nil
}

func (r *pollRepository) UserVotes(ctx context.Context, pollID, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.PollVote{}).
		Where("poll_id = ? AND user_id = ?", pollID, userID).
		Order("option_id").
		Pluck("option_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
