package server

import (
	"context"
	"time"

	"hearth/internal/middleware"
	"hearth/internal/service"
	"hearth/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type pollRequest struct {
	Options  []string   `json:"options"`
	Multiple bool       `json:"multiple"`
	ClosedAt *time.Time `json:"closed_at"`
}

type contentRequest struct {
	ContentText     *string `json:"content_text"`
	ContentMarkdown *string `json:"content_markdown"`
}

func (r contentRequest) input() validation.CommentContentInput {
	return validation.CommentContentInput{
		ContentText:     r.ContentText,
		ContentMarkdown: r.ContentMarkdown,
	}
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	var req struct {
		Community uint         `json:"community"`
		Title     string       `json:"title"`
		Href      *string      `json:"href"`
		Poll      *pollRequest `json:"poll"`
		contentRequest
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreatePostInput{
		AuthorID:    userID,
		CommunityID: req.Community,
		Content: validation.PostContentInput{
			Title:           req.Title,
			Href:            req.Href,
			ContentText:     req.ContentText,
			ContentMarkdown: req.ContentMarkdown,
		},
	}
	if req.Poll != nil {
		in.Content.Poll = &validation.PollInput{Options: req.Poll.Options, Multiple: req.Poll.Multiple}
		in.PollClosesAt = req.Poll.ClosedAt
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	viewerID, _ := middleware.UserID(c)
	if err := s.likeService.ScorePost(c.UserContext(), post, viewerID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// ListPosts handles GET /api/posts
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageLimit)
	posts, err := s.postService.ListPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.handleLike(c, s.likeService.LikePost)
}

// UnlikePost handles POST /api/posts/:id/unlike
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.handleLike(c, s.likeService.UnlikePost)
}

// handleLike runs a like toggle for the current user against the :id target.
func (s *Server) handleLike(c *fiber.Ctx, toggle func(ctx context.Context, actorID, targetID uint) error) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := toggle(c.UserContext(), userID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPostHref handles GET /api/posts/:id/href by redirecting to the link.
func (s *Server) GetPostHref(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	href, err := s.postService.GetPostHref(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Redirect(href, fiber.StatusFound)
}

// EditPost handles PATCH /api/posts/:id
func (s *Server) EditPost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title *string `json:"title"`
		contentRequest
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.EditPost(c.UserContext(), userID, postID, service.EditPostInput{
		Title:           req.Title,
		ContentText:     req.ContentText,
		ContentMarkdown: req.ContentMarkdown,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), userID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPollResults handles GET /api/posts/:id/poll
func (s *Server) GetPollResults(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := middleware.UserID(c)
	results, err := s.pollService.Results(c.UserContext(), postID, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(results)
}

// VotePoll handles POST /api/posts/:id/poll/votes
func (s *Server) VotePoll(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Options []uint `json:"options"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.pollService.Vote(c.UserContext(), userID, postID, req.Options); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClosePoll handles POST /api/posts/:id/poll/close
func (s *Server) ClosePoll(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.pollService.Close(c.UserContext(), userID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPostReplies handles GET /api/posts/:id/replies
func (s *Server) ListPostReplies(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListPostComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// ReplyToPost handles POST /api/posts/:id/replies
func (s *Server) ReplyToPost(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.ReplyToPost(c.UserContext(), userID, postID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
