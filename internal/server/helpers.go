package server

import (
	"errors"

	"hearth/internal/middleware"
	"hearth/internal/models"
	"hearth/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

const (
	defaultPageLimit   = 20
	maxPaginationLimit = 100
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}

var statusByCode = map[string]int{
	models.CodeValidation:   fiber.StatusBadRequest,
	models.CodeUnauthorized: fiber.StatusUnauthorized,
	models.CodeForbidden:    fiber.StatusForbidden,
	models.CodeNotFound:     fiber.StatusNotFound,
	models.CodeConflict:     fiber.StatusConflict,
	models.CodeUnavailable:  fiber.StatusServiceUnavailable,
	models.CodeInternal:     fiber.StatusInternalServerError,
}

func statusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"error": key, "params": {...}}. Anything that
// is not an AppError becomes an opaque internal error.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	status := statusFor(appErr.Code)

	if appErr.Key != "" {
		observability.RecordRejection(string(appErr.Key))
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"path", c.Path(), "error", err)
	}

	resp := models.ErrorResponse{
		Error:  string(appErr.Key),
		Code:   appErr.Code,
		Params: appErr.Params,
	}
	if appErr.Key == "" {
		resp.Error = appErr.Message
	}
	return c.Status(status).JSON(resp)
}

func badRequest(c *fiber.Ctx, message string) error {
	return respondError(c, models.NewValidationError(message))
}

// parseID extracts a route parameter as a positive uint. On failure it
// writes a 400 and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = badRequest(c, "Invalid "+param)
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentUserID returns the authenticated caller. Routes using it sit behind
// AuthRequired, so a missing user is answered with login_needed.
func currentUserID(c *fiber.Ctx) (uint, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		_ = respondError(c, models.NewKeyedError(models.KeyLoginNeeded))
		return 0, errResponseWritten
	}
	return id, nil
}

// parseBody decodes the JSON body into dest, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dest interface{}) error {
	if err := c.BodyParser(dest); err != nil {
		_ = badRequest(c, "Invalid request body")
		return errResponseWritten
	}
	return nil
}
