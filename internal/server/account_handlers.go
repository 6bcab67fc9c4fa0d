package server

import (
	"strings"

	"hearth/internal/middleware"
	"hearth/internal/models"
	"hearth/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) issueLogin(c *fiber.Ctx, status int, user *models.User) error {
	token, err := middleware.IssueToken(user.ID, loginTokenTTL)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Register handles POST /api/users
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username string  `json:"username"`
		Password string  `json:"password"`
		Email    *string `json:"email_address"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.accountService.Register(c.UserContext(), s.settings, service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		return respondError(c, err)
	}
	return s.issueLogin(c, fiber.StatusCreated, user)
}

// Login handles POST /api/logins
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.accountService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.issueLogin(c, fiber.StatusOK, user)
}

// GetCurrentLogin handles GET /api/logins/~current
func (s *Server) GetCurrentLogin(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	user, err := s.accountService.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user": fiber.Map{"id": user.ID, "username": user.Username},
	})
}

// ListUserThings handles GET /api/users/:id/things
func (s *Server) ListUserThings(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	things, err := s.activityService.UserThings(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(things)
}

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	user, err := s.accountService.GetUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":          user,
		"email_address": user.Email,
		"has_avatar":    user.HasAvatar(),
	})
}

// GetUser handles GET /api/users/:id
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.accountService.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe handles PATCH /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	var req struct {
		Email       *string `json:"email_address"`
		Description *string `json:"description"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.accountService.UpdateProfile(c.UserContext(), userID, service.UpdateProfileInput{
		Email:       req.Email,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles PUT /api/users/me/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.accountService.ChangePassword(c.UserContext(), userID, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetMyAvatar handles PUT /api/users/me/avatar. A JSON body selects an
// already uploaded image by media_id; any other body is uploaded as the image.
func (s *Server) SetMyAvatar(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		var req struct {
			MediaID string `json:"media_id"`
		}
		if err := parseBody(c, &req); err != nil {
			return nil
		}
		if err := s.mediaService.SetAvatar(c.UserContext(), userID, req.MediaID); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}

	m, err := s.mediaService.UploadAvatar(c.UserContext(), s.settings, service.UploadInput{
		OwnerID:     userID,
		ContentType: c.Get(fiber.HeaderContentType),
		Data:        append([]byte(nil), c.Body()...),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"id": m.ID})
}

// GetUserAvatar handles GET /api/users/:id/avatar
func (s *Server) GetUserAvatar(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	rc, m, err := s.mediaService.OpenAvatar(c.UserContext(), s.settings, id)
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, m.MimeType)
	return c.SendStream(rc)
}

// SetUserSuspended handles POST /api/users/:id/suspend
func (s *Server) SetUserSuspended(c *fiber.Ctx) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Suspended bool `json:"suspended"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.accountService.SetSuspended(c.UserContext(), actorID, targetID, req.Suspended); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// IssueForgotPasswordKey handles POST /api/forgot_password/keys
func (s *Server) IssueForgotPasswordKey(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email_address"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.passwordResetService.Issue(c.UserContext(), s.settings, req.Email); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CheckForgotPasswordKey handles GET /api/forgot_password/keys/:key
func (s *Server) CheckForgotPasswordKey(c *fiber.Ctx) error {
	if err := s.passwordResetService.CheckKey(c.UserContext(), c.Params("key")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// ResetPassword handles POST /api/forgot_password/keys/:key/reset
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.passwordResetService.Reset(c.UserContext(), c.Params("key"), req.NewPassword)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
