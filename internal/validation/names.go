// Package validation holds the structural checks applied to authoring and
// account payloads before anything touches storage.
package validation

import (
	"regexp"
	"strings"

	"hearth/internal/models"
)

// Usernames and community names share one character class: ASCII letters,
// digits and underscore.
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// emailRegex is intentionally loose; deliverability is the mailer's problem.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@.]+(\.[^\s@.]+)+$`)

const maxEmailLength = 254

// ValidateUsername checks a local username.
func ValidateUsername(username string) error {
	if !nameRegex.MatchString(username) {
		return models.NewKeyedError(models.KeyUserNameDisallowedChars)
	}
	return nil
}

// ValidateCommunityName checks a local community name.
func ValidateCommunityName(name string) error {
	if !nameRegex.MatchString(name) {
		return models.NewKeyedError(models.KeyCommunityNameDisallowedChars)
	}
	return nil
}

// ValidateEmail checks the shape of an email address.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		return models.NewKeyedError(models.KeyUserEmailInvalid)
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
