// Package middleware provides the fiber middleware stack: authentication,
// request-scoped logging and tracing.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"hearth/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// InitMiddleware sets the signing secret used by the auth middleware.
func InitMiddleware(secret string) {
	jwtSecret = []byte(secret)
}

// IssueToken signs a login token for userID.
func IssueToken(userID uint, ttl time.Duration) (string, error) {
	if len(jwtSecret) == 0 {
		return "", errors.New("jwt secret not initialised")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func parseBearer(header string) (uint, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}
	return parseToken(parts[1])
}

func parseToken(raw string) (uint, bool) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, false
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func loginNeeded(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: string(models.KeyLoginNeeded),
		Code:  models.CodeUnauthorized,
	})
}

func setUser(c *fiber.Ctx, id uint) {
	c.Locals("userID", id)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id))
}

// AuthRequired rejects requests without a valid bearer token.
func AuthRequired(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return loginNeeded(c)
	}
	id, ok := parseBearer(header)
	if !ok {
		return loginNeeded(c)
	}
	setUser(c, id)
	return c.Next()
}

// WebSocketAuthRequired accepts the login token from the "token" query
// parameter, since browsers cannot set headers on a WebSocket handshake, and
// falls back to the Authorization header.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	var (
		id uint
		ok bool
	)
	if raw := c.Query("token"); raw != "" {
		id, ok = parseToken(raw)
	} else {
		id, ok = parseBearer(c.Get("Authorization"))
	}
	if !ok {
		return loginNeeded(c)
	}
	setUser(c, id)
	return c.Next()
}

// AuthOptional attaches the user when a valid token is present and lets
// anonymous requests through otherwise.
func AuthOptional(c *fiber.Ctx) error {
	if id, ok := parseBearer(c.Get("Authorization")); ok {
		setUser(c, id)
	}
	return c.Next()
}

// UserID returns the authenticated user set by AuthRequired or AuthOptional.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userID").(uint)
	return id, ok && id != 0
}
