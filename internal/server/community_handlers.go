package server

import (
	"hearth/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	community, err := s.moderationService.CreateCommunity(c.UserContext(), s.settings, userID, service.CreateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// EditCommunity handles PATCH /api/communities/:id
func (s *Server) EditCommunity(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Description *string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	community, err := s.moderationService.EditCommunity(c.UserContext(), userID, communityID, service.EditCommunityInput{
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(community)
}

// ListModerators handles GET /api/communities/:id/moderators
func (s *Server) ListModerators(c *fiber.Ctx) error {
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	mods, err := s.moderationService.ListModerators(c.UserContext(), communityID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(mods)
}

// AddModerator handles PUT /api/communities/:id/moderators/:userId
func (s *Server) AddModerator(c *fiber.Ctx) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.moderationService.AddModerator(c.UserContext(), actorID, communityID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveModerator handles DELETE /api/communities/:id/moderators/:userId
func (s *Server) RemoveModerator(c *fiber.Ctx) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.moderationService.RemoveModerator(c.UserContext(), actorID, communityID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCommunityPosts handles GET /api/communities/:id/posts
func (s *Server) ListCommunityPosts(c *fiber.Ctx) error {
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)
	posts, err := s.postService.ListCommunityPosts(c.UserContext(), communityID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// ModeratePost handles PATCH /api/communities/:id/posts/:postId
func (s *Server) ModeratePost(c *fiber.Ctx) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}
	var req struct {
		Sticky *bool `json:"sticky"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Sticky == nil {
		return badRequest(c, "Nothing to change")
	}

	if err := s.moderationService.SetPostSticky(c.UserContext(), actorID, communityID, postID, *req.Sticky); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveCommunityPost handles DELETE /api/communities/:id/posts/:postId
func (s *Server) RemoveCommunityPost(c *fiber.Ctx) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	communityID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.moderationService.RemoveCommunityPost(c.UserContext(), actorID, communityID, postID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
