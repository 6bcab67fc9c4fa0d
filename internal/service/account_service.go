package service

import (
	"context"
	"strings"

	"hearth/internal/config"
	"hearth/internal/models"
	"hearth/internal/repository"
	"hearth/internal/validation"
)

// MaxDescriptionLength bounds profile descriptions in bytes.
const MaxDescriptionLength = 5000

type AccountService struct {
	users repository.UserRepository
}

type RegisterInput struct {
	Username string
	Password string
	Email    *string
}

type UpdateProfileInput struct {
	Email       *string
	Description *string
}

func NewAccountService(users repository.UserRepository) *AccountService {
	return &AccountService{users: users}
}

// Register creates a local account.
func (s *AccountService) Register(ctx context.Context, settings config.Settings, in RegisterInput) (*models.User, error) {
	if err := CheckSignupAllowed(settings); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	email, err := normalizeOptionalEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Host:         settings.LocalHostname,
		Local:        true,
		Email:        email,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies a local user's credentials. Usernames match case-insensitively.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetLocalByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := CheckPassword(user, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user, current); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	user, err := requireActiveUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		email, err := normalizeOptionalEmail(in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Description != nil {
		if len(*in.Description) > MaxDescriptionLength {
			return nil, models.NewValidationError("Description too long (max 5000 characters)")
		}
		user.Description = *in.Description
	}
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequireActiveUser loads a user and fails if they are suspended.
func (s *AccountService) RequireActiveUser(ctx context.Context, userID uint) (*models.User, error) {
	return requireActiveUser(ctx, s.users, userID)
}

func (s *AccountService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// SetSuspended is admin-only.
func (s *AccountService) SetSuspended(ctx context.Context, actorID, targetID uint, suspended bool) error {
	actor, err := requireActiveUser(ctx, s.users, actorID)
	if err != nil {
		return err
	}
	if err := CheckAdmin(actor); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.users.SetSuspended(ctx, targetID, suspended)
}

// GetAvatar returns the media ID of the user's avatar.
func (s *AccountService) GetAvatar(ctx context.Context, userID uint) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return CheckAvatar(user)
}

// normalizeOptionalEmail maps a blank address to nil.
func normalizeOptionalEmail(email *string) (*string, error) {
	if email == nil || strings.TrimSpace(*email) == "" {
		return nil, nil
	}
	normalized := validation.NormalizeEmail(*email)
	if err := validation.ValidateEmail(normalized); err != nil {
		return nil, err
	}
	return &normalized, nil
}
