package service

import (
	"context"
	"log/slog"
	"time"

	"hearth/internal/config"
	"hearth/internal/mail"
	"hearth/internal/models"
	"hearth/internal/observability"
	"hearth/internal/repository"
	"hearth/internal/validation"

	"github.com/google/uuid"
)

// PasswordResetService issues and redeems single-use forgot-password keys.
type PasswordResetService struct {
	users  repository.UserRepository
	keys   repository.ForgotPasswordKeyRepository
	mailer mail.Mailer
	now    func() time.Time
	newKey func() string
}

func NewPasswordResetService(users repository.UserRepository, keys repository.ForgotPasswordKeyRepository, mailer mail.Mailer) *PasswordResetService {
	return &PasswordResetService{
		users:  users,
		keys:   keys,
		mailer: mailer,
		now:    time.Now,
		newKey: uuid.NewString,
	}
}

// Issue creates a key for the local user with this email and mails it to them.
func (s *PasswordResetService) Issue(ctx context.Context, settings config.Settings, email string) (err error) {
	ctx, end := observability.StartSpan(ctx, "password_reset.issue")
	defer func() { end(err) }()

	if !settings.EmailEnabled || s.mailer == nil {
		return models.NewKeyedError(models.KeyEmailNotConfigured)
	}
	user, err := s.users.GetLocalByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return err
	}

	now := s.now().UTC()
	key := &models.ForgotPasswordKey{
		Key:       s.newKey(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(settings.ForgotPasswordKeyTTL),
	}
	if err = s.keys.Create(ctx, key); err != nil {
		return err
	}

	err = s.mailer.Send(ctx, mail.Envelope{
		To: *user.Email,
		Subject: models.Message{
			Key:    models.MessageEmailSubjectForgotPassword,
			Params: map[string]string{"username": user.Username},
		},
		Body: models.Message{
			Key:    models.MessageEmailContentForgotPassword,
			Params: map[string]string{"username": user.Username, "key": key.Key},
		},
	})
	if err != nil {
		// Nobody received the key, so it must not stay redeemable.
		if delErr := s.keys.Delete(ctx, key.Key); delErr != nil {
			slog.WarnContext(ctx, "failed to revoke undelivered forgot-password key",
				"user_id", user.ID, "err", delErr)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// CheckKey reports whether key can still be redeemed.
func (s *PasswordResetService) CheckKey(ctx context.Context, key string) error {
	_, err := s.keys.GetValid(ctx, key, s.now().UTC())
	return err
}

// Reset redeems key and sets a new password. Unknown, used and expired keys
// all fail with the same error.
func (s *PasswordResetService) Reset(ctx context.Context, key, newPassword string) (_ *models.User, err error) {
	ctx, end := observability.StartSpan(ctx, "password_reset.reset")
	defer func() { end(err) }()

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	userID, err := s.keys.ConsumeAndSetPassword(ctx, key, s.now().UTC(), hash)
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}
