package server

import (
	"hearth/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetComment handles GET /api/comments/:id
func (s *Server) GetComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.GetComment(c.UserContext(), commentID)
	if err != nil {
		return respondError(c, err)
	}
	viewerID, _ := middleware.UserID(c)
	if err := s.likeService.ScoreComment(c.UserContext(), comment, viewerID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// LikeComment handles POST /api/comments/:id/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.handleLike(c, s.likeService.LikeComment)
}

// UnlikeComment handles POST /api/comments/:id/unlike
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	return s.handleLike(c, s.likeService.UnlikeComment)
}

// ReplyToComment handles POST /api/comments/:id/replies
func (s *Server) ReplyToComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	parentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.ReplyToComment(c.UserContext(), userID, parentID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// EditComment handles PATCH /api/comments/:id
func (s *Server) EditComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req contentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.EditComment(c.UserContext(), userID, commentID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), userID, commentID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
