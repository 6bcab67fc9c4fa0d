package repository

import (
	"context"
	"fmt"
	"time"

	"hearth/internal/cache"
	"hearth/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommunityRepository defines persistence operations for communities and
// their moderator relations.
type CommunityRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	CreateWithModerator(ctx context.Context, community *models.Community, moderatorID uint) error
	UpdateDescription(ctx context.Context, community *models.Community) error

	ListModerators(ctx context.Context, communityID uint) ([]models.CommunityModerator, error)
	GetModerator(ctx context.Context, communityID, userID uint) (*models.CommunityModerator, error)
	AddModerator(ctx context.Context, communityID, userID uint, at time.Time) (bool, error)
	RemoveJuniorModerator(ctx context.Context, communityID, actorID, targetID uint) (bool, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	err := cache.Aside(ctx, cache.CommunityKey(id), &community, cache.CommunityTTL, func() error {
		if err := r.db.WithContext(ctx).First(&community, id).Error; err != nil {
			return notFoundAs(err, models.KeyNoSuchCommunity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) CreateWithModerator(ctx context.Context, community *models.Community, moderatorID uint) error {
	// The founder's seniority is the community's creation time; both rows use
	// the same UTC instant.
	if community.CreatedAt.IsZero() {
		community.CreatedAt = time.Now().UTC()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.CommunityModerator{
			CommunityID: community.ID,
			UserID:      moderatorID,
			CreatedAt:   community.CreatedAt,
		}).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewKeyedError(models.KeyNameInUse).WithCause(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) UpdateDescription(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Model(&models.Community{ID: community.ID}).
		Update("description", community.Description).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, community.ID, community.Host, community.Name)
	return nil
}

func (r *communityRepository) ListModerators(ctx context.Context, communityID uint) ([]models.CommunityModerator, error) {
	var mods []models.CommunityModerator
	err := cache.Aside(ctx, cache.ModeratorsKey(communityID), &mods, cache.ModeratorsTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("User").
			Where("community_id = ?", communityID).
			Order("created_at ASC, user_id ASC").
			Find(&mods).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return mods, nil
}

// GetModerator returns nil, nil when userID does not moderate the community.
func (r *communityRepository) GetModerator(ctx context.Context, communityID, userID uint) (*models.CommunityModerator, error) {
	var mods []models.CommunityModerator
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Limit(1).
		Find(&mods).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(mods) == 0 {
		return nil, nil
	}
	return &mods[0], nil
}

// AddModerator inserts the relation unless it already exists, in which case
// the original appointment time is kept. It reports whether a row was added.
func (r *communityRepository) AddModerator(ctx context.Context, communityID, userID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommunityModerator{CommunityID: communityID, UserID: userID, CreatedAt: at})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidateModerators(ctx, communityID)
	return res.RowsAffected == 1, nil
}

// RemoveJuniorModerator deletes target's relation only if actor is a moderator
// appointed strictly earlier. The seniority comparison runs inside the DELETE
// so a concurrent change cannot slip between check and write.
func (r *communityRepository) RemoveJuniorModerator(ctx context.Context, communityID, actorID, targetID uint) (bool, error) {
	res := r.db.WithContext(ctx).Exec(fmt.Sprintf(`DELETE FROM %[1]s
		WHERE community_id = ? AND user_id = ?
		AND created_at > (SELECT created_at FROM %[1]s WHERE community_id = ? AND user_id = ?)`,
		moderatorsTable),
		communityID, targetID, communityID, actorID)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	cache.InvalidateModerators(ctx, communityID)
	return res.RowsAffected == 1, nil
}

const moderatorsTable = "community_moderators"
