package service

import (
	"context"
	"time"

	"hearth/internal/markdown"
	"hearth/internal/models"
	"hearth/internal/repository"
	"hearth/internal/validation"
)

type PostService struct {
	users       repository.UserRepository
	communities repository.CommunityRepository
	posts       repository.PostRepository
	renderer    *markdown.Renderer
}

type CreatePostInput struct {
	AuthorID    uint
	CommunityID uint
	Content     validation.PostContentInput
	// PollClosesAt is an optional voting deadline; ignored without a poll.
	PollClosesAt *time.Time
}

// EditPostInput replaces the title and/or body of a post. Supplying either
// body field replaces the whole body; the href of a link post is fixed.
type EditPostInput struct {
	Title           *string
	ContentText     *string
	ContentMarkdown *string
}

func NewPostService(
	users repository.UserRepository,
	communities repository.CommunityRepository,
	posts repository.PostRepository,
	renderer *markdown.Renderer,
) *PostService {
	return &PostService{
		users:       users,
		communities: communities,
		posts:       posts,
		renderer:    renderer,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	author, err := requireActiveUser(ctx, s.users, in.AuthorID)
	if err != nil {
		return nil, err
	}
	content, err := validation.ValidatePostContent(in.Content)
	if err != nil {
		return nil, err
	}
	community, err := s.communities.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:    author.ID,
		CommunityID: community.ID,
		Local:       true,
	}
	if err := applyPostContent(post, content, s.renderer); err != nil {
		return nil, err
	}
	if content.HasPoll {
		post.Poll = &models.Poll{
			Multiple: content.PollMulti,
			State:    models.PollStateOpen,
		}
		if in.PollClosesAt != nil {
			closesAt := in.PollClosesAt.UTC()
			post.Poll.ClosesAt = &closesAt
		}
		for _, name := range content.PollOptions {
			post.Poll.Options = append(post.Poll.Options, models.PollOption{Name: name})
		}
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

// GetPostHref returns the link target of a link post.
func (s *PostService) GetPostHref(ctx context.Context, postID uint) (string, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return "", err
	}
	return validation.RequireLinkPost(post)
}

func (s *PostService) ListCommunityPosts(ctx context.Context, communityID uint, limit, offset int) ([]models.Post, error) {
	if _, err := s.communities.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.posts.ListByCommunity(ctx, communityID, limit, offset)
}

// ListPosts returns the live posts of every community, newest first.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.posts.ListRecent(ctx, limit, offset)
}

func (s *PostService) EditPost(ctx context.Context, actorID, postID uint, in EditPostInput) (*models.Post, error) {
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
	if err := validation.RequirePostOwner(post, actorID); err != nil {
		return nil, err
	}

	merged := validation.PostContentInput{
		Title:           post.Title,
		Href:            post.Href,
		ContentText:     post.ContentText,
		ContentMarkdown: post.ContentMarkdown,
	}
	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.ContentText != nil || in.ContentMarkdown != nil {
		merged.ContentText = in.ContentText
		merged.ContentMarkdown = in.ContentMarkdown
	}
	content, err := validation.ValidatePostContent(merged)
	if err != nil {
		return nil, err
	}
	if err := applyPostContent(post, content, s.renderer); err != nil {
		return nil, err
	}
	if err := s.posts.UpdateContent(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost soft-deletes the actor's own post.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID uint) error {
	if _, err := requireActiveUser(ctx, s.users, actorID); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if err := validation.RequirePostOwner(post, actorID); err != nil {
		return err
	}
	return s.posts.MarkDeleted(ctx, post.ID)
}

// applyPostContent copies a validated payload onto post, clearing the body
// forms it does not use.
func applyPostContent(post *models.Post, content validation.PostContent, renderer *markdown.Renderer) error {
	post.Title = content.Title
	post.Href, post.ContentText, post.ContentMarkdown, post.ContentHTML = nil, nil, nil, nil
	switch content.Form {
	case validation.ContentFormLink:
		post.Href = &content.Href
	case validation.ContentFormText:
		post.ContentText = &content.Text
	case validation.ContentFormMarkdown:
		html, err := renderer.Render(content.Markdown)
		if err != nil {
			return models.NewInternalError(err)
		}
		post.ContentMarkdown = &content.Markdown
		post.ContentHTML = &html
	}
	return nil
}
