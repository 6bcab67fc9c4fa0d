package repository

import (
	"context"

	"hearth/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, comment *models.Comment) error
	MarkDeleted(ctx context.Context, id uint) error
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
	ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchComment)
	}
	return &comment, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Post", "Author").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Model(&models.Comment{ID: comment.ID}).
		Updates(map[string]interface{}{
			"content_text":     comment.ContentText,
			"content_markdown": comment.ContentMarkdown,
			"content_html":     comment.ContentHTML,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) MarkDeleted(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"content_text":     DeletedTitle,
			"content_markdown": nil,
			"content_html":     nil,
			"deleted":          true,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewKeyedError(models.KeyNoSuchComment)
	}
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// ListByAuthor returns the author's live comments, newest first, each with the
// id and title of its post.
func (r *commentRepository) ListByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Post", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		Where("author_id = ? AND NOT deleted", authorID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
