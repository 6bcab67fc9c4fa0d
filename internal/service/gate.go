// Package service is the rule engine: every authoring, moderation and account
// operation runs its checks here, in order, before anything is written.
package service

import (
	"context"
	"errors"

	"hearth/internal/config"
	"hearth/internal/models"
	"hearth/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// CheckActive rejects suspended users.
func CheckActive(user *models.User) error {
	if user.Suspended {
		return models.NewKeyedError(models.KeyUserSuspended)
	}
	return nil
}

// CheckAdmin rejects non-admins.
func CheckAdmin(user *models.User) error {
	if !user.IsAdmin {
		return models.NewKeyedError(models.KeyNotAdmin)
	}
	return nil
}

// CheckPassword compares password against the user's stored hash.
func CheckPassword(user *models.User, password string) error {
	if !user.HasPassword() {
		return models.NewKeyedError(models.KeyNoPassword)
	}
	err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return models.NewKeyedError(models.KeyPasswordIncorrect)
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// CheckAvatar returns the user's avatar media ID.
func CheckAvatar(user *models.User) (string, error) {
	if !user.HasAvatar() {
		return "", models.NewKeyedError(models.KeyUserNoAvatar)
	}
	return *user.AvatarMediaID, nil
}

// CheckSignupAllowed consults the deployment's signup flag.
func CheckSignupAllowed(settings config.Settings) error {
	if !settings.SignupAllowed {
		return models.NewKeyedError(models.KeySignupNotAllowed)
	}
	return nil
}

// HashPassword bcrypt-hashes a new password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", models.NewValidationError("Password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", models.NewValidationError("Password too long (max 72 bytes)")
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// requireActiveUser loads the acting user and applies the suspension gate.
func requireActiveUser(ctx context.Context, users repository.UserRepository, id uint) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckActive(user); err != nil {
		return nil, err
	}
	return user, nil
}
