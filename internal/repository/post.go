package repository

import (
	"context"

	"hearth/internal/models"

	"gorm.io/gorm"
)

// DeletedTitle replaces the title of a deleted post.
const DeletedTitle = "[deleted]"

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	UpdateContent(ctx context.Context, post *models.Post) error
	SetSticky(ctx context.Context, id uint, sticky bool) error
	MarkDeleted(ctx context.Context, id uint) error
	ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]models.Post, error)
	ListRecent(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func preloadPoll(db *gorm.DB) *gorm.DB {
	return db.Preload("Poll").Preload("Poll.Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := preloadPoll(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchPost)
	}
	return &post, nil
}

// Create stores the post together with its poll and options in one
// transaction. A duplicate option name that slipped past validation surfaces
// as post_poll_options_conflict.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	// Associations are written explicitly: gorm's association upsert would
	// turn a duplicate option into a silent no-op.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Poll").Create(post).Error; err != nil {
			return err
		}
		if post.Poll == nil {
			return nil
		}
		post.Poll.PostID = post.ID
		if err := tx.Omit("Options").Create(post.Poll).Error; err != nil {
			return err
		}
		for i := range post.Poll.Options {
			opt := &post.Poll.Options[i]
			opt.PollID = post.Poll.ID
			opt.Position = i
			if err := tx.Create(opt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewKeyedError(models.KeyPostPollOptionsConflict).WithCause(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) UpdateContent(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Updates(map[string]interface{}{
			"title":            post.Title,
			"content_text":     post.ContentText,
			"content_markdown": post.ContentMarkdown,
			"content_html":     post.ContentHTML,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) SetSticky(ctx context.Context, id uint, sticky bool) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("sticky", sticky)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewKeyedError(models.KeyNoSuchPost)
	}
	return nil
}

// MarkDeleted blanks the post's content and flags it deleted. The row stays so
// reply threads remain intact.
func (r *postRepository) MarkDeleted(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"title":            DeletedTitle,
			"href":             nil,
			"content_text":     nil,
			"content_markdown": nil,
			"content_html":     nil,
			"deleted":          true,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewKeyedError(models.KeyNoSuchPost)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 30
	}
	return limit
}

func (r *postRepository) ListByCommunity(ctx context.Context, communityID uint, limit, offset int) ([]models.Post, error) {
	limit = clampLimit(limit)
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND NOT deleted", communityID).
		Order("sticky DESC, created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListRecent returns live posts across every community, newest first.
func (r *postRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Community").
		Where("NOT deleted").
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Community").
		Where("author_id = ? AND NOT deleted", authorID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}
