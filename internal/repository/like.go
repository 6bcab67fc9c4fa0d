package repository

import (
	"context"

	"hearth/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores post and comment likes. Liking twice and unliking
// something never liked are both no-ops.
type LikeRepository interface {
	LikePost(ctx context.Context, postID, userID uint) (bool, error)
	UnlikePost(ctx context.Context, postID, userID uint) (bool, error)
	LikeComment(ctx context.Context, commentID, userID uint) (bool, error)
	UnlikeComment(ctx context.Context, commentID, userID uint) (bool, error)
	PostScore(ctx context.Context, postID, viewerID uint) (int64, bool, error)
	CommentScore(ctx context.Context, commentID, viewerID uint) (int64, bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// insert reports whether a new row was written.
func (r *likeRepository) insert(ctx context.Context, like interface{}) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *likeRepository) remove(ctx context.Context, model interface{}, column string, targetID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where(column+" = ? AND user_id = ?", targetID, userID).Delete(model)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// score counts likes on one target. liked is false when viewerID is zero.
func (r *likeRepository) score(ctx context.Context, model interface{}, column string, targetID, viewerID uint) (int64, bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where(column+" = ?", targetID).Count(&count).Error; err != nil {
		return 0, false, models.NewInternalError(err)
	}
	if viewerID == 0 || count == 0 {
		return count, false, nil
	}
	var mine int64
	err := r.db.WithContext(ctx).Model(model).
		Where(column+" = ? AND user_id = ?", targetID, viewerID).
		Count(&mine).Error
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}
	return count, mine > 0, nil
}

func (r *likeRepository) LikePost(ctx context.Context, postID, userID uint) (bool, error) {
	return r.insert(ctx, &models.PostLike{PostID: postID, UserID: userID, Local: true})
}

func (r *likeRepository) UnlikePost(ctx context.Context, postID, userID uint) (bool, error) {
	return r.remove(ctx, &models.PostLike{}, "post_id", postID, userID)
}

func (r *likeRepository) LikeComment(ctx context.Context, commentID, userID uint) (bool, error) {
	return r.insert(ctx, &models.CommentLike{CommentID: commentID, UserID: userID, Local: true})
}

func (r *likeRepository) UnlikeComment(ctx context.Context, commentID, userID uint) (bool, error) {
	return r.remove(ctx, &models.CommentLike{}, "comment_id", commentID, userID)
}

func (r *likeRepository) PostScore(ctx context.Context, postID, viewerID uint) (int64, bool, error) {
	return r.score(ctx, &models.PostLike{}, "post_id", postID, viewerID)
}

func (r *likeRepository) CommentScore(ctx context.Context, commentID, viewerID uint) (int64, bool, error) {
	return r.score(ctx, &models.CommentLike{}, "comment_id", commentID, viewerID)
}
