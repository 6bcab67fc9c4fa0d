package service

import (
	"context"
	"log/slog"

	"hearth/internal/markdown"
	"hearth/internal/models"
	"hearth/internal/repository"
	"hearth/internal/validation"
)

type CommentService struct {
	users         repository.UserRepository
	posts         repository.PostRepository
	comments      repository.CommentRepository
	notifications *NotificationService
	renderer      *markdown.Renderer
}

func NewCommentService(
	users repository.UserRepository,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	notifications *NotificationService,
	renderer *markdown.Renderer,
) *CommentService {
	return &CommentService{
		users:         users,
		posts:         posts,
		comments:      comments,
		notifications: notifications,
		renderer:      renderer,
	}
}

// ReplyToPost adds a top-level comment and notifies the post's author.
func (s *CommentService) ReplyToPost(ctx context.Context, actorID, postID uint, in validation.CommentContentInput) (*models.Comment, error) {
	author, err := requireActiveUser(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	content, err := validation.ValidateCommentContent(in)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchPost)
	}

	comment := &models.Comment{PostID: post.ID, AuthorID: author.ID, Local: true}
	if err := s.create(ctx, comment, content); err != nil {
		return nil, err
	}
	s.notify(ctx, post, nil, comment)
	return comment, nil
}

// ReplyToComment adds a nested comment and notifies the parent's author.
func (s *CommentService) ReplyToComment(ctx context.Context, actorID, parentID uint, in validation.CommentContentInput) (*models.Comment, error) {
	author, err := requireActiveUser(ctx, s.users, actorID)
	if err != nil {
		return nil, err
	}
	content, err := validation.ValidateCommentContent(in)
	if err != nil {
		return nil, err
	}
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchComment)
	}
	post, err := s.posts.GetByID(ctx, parent.PostID)
	if err != nil {
		return nil, err
	}
	if post.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchPost)
	}

	comment := &models.Comment{PostID: post.ID, ParentID: &parent.ID, AuthorID: author.ID, Local: true}
	if err := s.create(ctx, comment, content); err != nil {
		return nil, err
	}
	s.notify(ctx, post, parent, comment)
	return comment, nil
}

// GetComment returns the comment with the id and title of its post attached.
func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	comment.Post = &models.Post{ID: post.ID, Title: post.Title}
	return comment, nil
}

func (s *CommentService) ListPostComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID)
}

func (s *CommentService) EditComment(ctx context.Context, actorID, commentID uint, in validation.CommentContentInput) (*models.Comment, error) {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return nil, err
	}
	content, err := validation.ValidateCommentContent(in)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.Deleted {
		return nil, models.NewKeyedError(models.KeyNoSuchComment)
	}
	if err := validation.RequireCommentOwner(comment, actorID); err != nil {
		return nil, err
	}
	if err := applyCommentContent(comment, content, s.renderer); err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID uint) error {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := validation.RequireCommentOwner(comment, actorID); err != nil {
		return err
	}
	return s.comments.MarkDeleted(ctx, comment.ID)
}

func (s *CommentService) create(ctx context.Context, comment *models.Comment, content validation.CommentContent) error {
	if err := applyCommentContent(comment, content, s.renderer); err != nil {
		return err
	}
	return s.comments.Create(ctx, comment)
}

// notify dispatches the reply notification. The comment is already stored,
// so a failure here is logged rather than returned.
func (s *CommentService) notify(ctx context.Context, post *models.Post, parent, reply *models.Comment) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Dispatch(ctx, post, parent, reply); err != nil {
		slog.WarnContext(ctx, "failed to dispatch reply notification",
			"comment_id", reply.ID, "post_id", post.ID, "err", err)
	}
}

func applyCommentContent(comment *models.Comment, content validation.CommentContent, renderer *markdown.Renderer) error {
	comment.ContentText, comment.ContentMarkdown, comment.ContentHTML = nil, nil, nil
	switch content.Form {
	case validation.ContentFormText:
		comment.ContentText = &content.Text
	case validation.ContentFormMarkdown:
		html, err := renderer.Render(content.Markdown)
		if err != nil {
			return models.NewInternalError(err)
		}
		comment.ContentMarkdown = &content.Markdown
		comment.ContentHTML = &html
	}
	return nil
}
