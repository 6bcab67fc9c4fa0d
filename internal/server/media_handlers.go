package server

import (
	"hearth/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/media. The request body is the file and
// Content-Type names its type.
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	m, err := s.mediaService.Upload(c.UserContext(), s.settings, service.UploadInput{
		OwnerID:     userID,
		ContentType: c.Get(fiber.HeaderContentType),
		Data:        append([]byte(nil), c.Body()...),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": m.ID})
}

// GetMedia handles GET /api/media/:id
func (s *Server) GetMedia(c *fiber.Ctx) error {
	rc, m, err := s.mediaService.Open(c.UserContext(), s.settings, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, m.MimeType)
	return c.SendStream(rc)
}
