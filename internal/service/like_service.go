package service

import (
	"context"

	"hearth/internal/models"
	"hearth/internal/repository"
)

// LikeService records likes on posts and comments. Likes go through the same
// suspension gate as every other authoring action and never land on deleted
// content.
type LikeService struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	likes    repository.LikeRepository
}

func NewLikeService(
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	likes repository.LikeRepository,
) *LikeService {
	return &LikeService{users: users, posts: posts, comments: comments, likes: likes}
}

func (s *LikeService) livePost(ctx context.Context, actorID, postID uint) (*models.Post, error) {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchPost)
	}
	return post, nil
}

func (s *LikeService) liveComment(ctx context.Context, actorID, commentID uint) (*models.Comment, error) {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchComment)
	}
	return comment, nil
}

// LikePost is idempotent.
func (s *LikeService) LikePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.livePost(ctx, actorID, postID)
	if err != nil {
		return err
	}
	_, err = s.likes.LikePost(ctx, post.ID, actorID)
	return err
}

// UnlikePost withdraws a like; withdrawing one that was never given succeeds.
func (s *LikeService) UnlikePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.livePost(ctx, actorID, postID)
	if err != nil {
		return err
	}
	_, err = s.likes.UnlikePost(ctx, post.ID, actorID)
	return err
}

func (s *LikeService) LikeComment(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.liveComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	_, err = s.likes.LikeComment(ctx, comment.ID, actorID)
	return err
}

func (s *LikeService) UnlikeComment(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.liveComment(ctx, actorID, commentID)
	if err != nil {
		return err
	}
	_, err = s.likes.UnlikeComment(ctx, comment.ID, actorID)
	return err
}

// ScorePost fills in the post's like count and, for a signed-in viewer,
// whether they liked it. viewerID zero means anonymous.
func (s *LikeService) ScorePost(ctx context.Context, post *models.Post, viewerID uint) error {
	score, liked, err := s.likes.PostScore(ctx, post.ID, viewerID)
	if err != nil {
		return err
	}
	post.Score = score
	if viewerID != 0 {
		post.YourVote = &liked
	}
	return nil
}

func (s *LikeService) ScoreComment(ctx context.Context, comment *models.Comment, viewerID uint) error {
	score, liked, err := s.likes.CommentScore(ctx, comment.ID, viewerID)
	if err != nil {
		return err
	}
	comment.Score = score
	if viewerID != 0 {
		comment.YourVote = &liked
	}
	return nil
}
