// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"hearth/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint failure from
// Postgres or SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFoundAs maps gorm's not-found error to a keyed error and wraps anything
// else as internal.
func notFoundAs(err error, key models.ErrorKey) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewKeyedError(key)
	}
	return models.NewInternalError(err)
}
