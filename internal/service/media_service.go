package service

import (
	"context"
	"errors"
	"io"
	"time"

	"hearth/internal/config"
	"hearth/internal/media"
	"hearth/internal/models"
	"hearth/internal/repository"

	"github.com/google/uuid"
)

// MediaService accepts uploads and resolves stored media.
type MediaService struct {
	users repository.UserRepository
	media repository.MediaRepository
	store media.Store
	newID func() string
}

type UploadInput struct {
	OwnerID     uint
	ContentType string
	Data        []byte
}

func NewMediaService(users repository.UserRepository, mediaRepo repository.MediaRepository, store media.Store) *MediaService {
	return &MediaService{
		users: users,
		media: mediaRepo,
		store: store,
		newID: uuid.NewString,
	}
}

func (s *MediaService) configured(settings config.Settings) error {
	if !settings.MediaUploadEnabled || s.store == nil {
		return models.NewKeyedError(models.KeyMediaUploadNotConfigured)
	}
	return nil
}

// Upload stores a file of any content type.
func (s *MediaService) Upload(ctx context.Context, settings config.Settings, in UploadInput) (*models.Media, error) {
	if _, err := requireActiveUser(ctx, s.users, in.OwnerID); err != nil {
		return nil, err
	}
	if err := s.configured(settings); err != nil {
		return nil, err
	}
	contentType := media.NormalizeContentType(in.ContentType)
	if contentType == "" {
		return nil, models.NewKeyedError(models.KeyMissingContentType)
	}
	format, _ := media.SniffImage(in.Data)
	return s.save(ctx, in.OwnerID, contentType, format, in.Data)
}

// UploadAvatar stores an image and makes it the owner's avatar.
func (s *MediaService) UploadAvatar(ctx context.Context, settings config.Settings, in UploadInput) (*models.Media, error) {
	if _, err := requireActiveUser(ctx, s.users, in.OwnerID); err != nil {
		return nil, err
	}
	if err := s.configured(settings); err != nil {
		return nil, err
	}
	contentType := media.NormalizeContentType(in.ContentType)
	if contentType == "" {
		return nil, models.NewKeyedError(models.KeyMissingContentType)
	}
	if !media.IsImageType(contentType) {
		return nil, models.NewKeyedError(models.KeyMediaUploadNotImage)
	}
	format, ok := media.SniffImage(in.Data)
	if !ok {
		return nil, models.NewKeyedError(models.KeyMediaUploadNotImage)
	}

	m, err := s.save(ctx, in.OwnerID, contentType, format, in.Data)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetAvatar(ctx, in.OwnerID, &m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

// SetAvatar points the user's avatar at media they uploaded earlier. The
// declared type and the sniffed bytes must both be an image.
func (s *MediaService) SetAvatar(ctx context.Context, userID uint, mediaID string) error {
	if _, err := requireActiveUser(ctx, s.users, userID); err != nil {
		return err
	}
	m, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if m.OwnerID != userID {
		return models.NewKeyedError(models.KeyNoSuchAttachment)
	}
	if !media.IsImageType(m.MimeType) || m.ImageFormat == "" {
		return models.NewKeyedError(models.KeyMediaUploadNotImage)
	}
	return s.users.SetAvatar(ctx, userID, &m.ID)
}

// Open returns the stored bytes for a media record. The caller closes the reader.
func (s *MediaService) Open(ctx context.Context, settings config.Settings, mediaID string) (io.ReadCloser, *models.Media, error) {
	if err := s.configured(settings); err != nil {
		return nil, nil, err
	}
	m, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, m.Path)
	if errors.Is(err, media.ErrMissing) {
		return nil, nil, models.NewKeyedError(models.KeyMediaUploadMissing)
	}
	if err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	return rc, m, nil
}

// OpenAvatar opens a user's avatar image.
func (s *MediaService) OpenAvatar(ctx context.Context, settings config.Settings, userID uint) (io.ReadCloser, *models.Media, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	mediaID, err := CheckAvatar(user)
	if err != nil {
		return nil, nil, err
	}
	return s.Open(ctx, settings, mediaID)
}

func (s *MediaService) save(ctx context.Context, ownerID uint, contentType, format string, data []byte) (*models.Media, error) {
	id := s.newID()
	path, err := s.store.Save(ctx, id, data)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	m := &models.Media{
		ID:          id,
		OwnerID:     ownerID,
		Path:        path,
		MimeType:    contentType,
		ImageFormat: format,
		Size:        int64(len(data)),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.media.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
