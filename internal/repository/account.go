package repository

import (
	"context"
	"time"

	"hearth/internal/models"

	"gorm.io/gorm"
)

// ForgotPasswordKeyRepository defines persistence operations for password
// reset keys.
type ForgotPasswordKeyRepository interface {
	Create(ctx context.Context, key *models.ForgotPasswordKey) error
	GetValid(ctx context.Context, key string, now time.Time) (*models.ForgotPasswordKey, error)
	ConsumeAndSetPassword(ctx context.Context, key string, now time.Time, passwordHash string) (uint, error)
	Delete(ctx context.Context, key string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type forgotPasswordKeyRepository struct {
	db *gorm.DB
}

// NewForgotPasswordKeyRepository returns a new ForgotPasswordKeyRepository implementation.
func NewForgotPasswordKeyRepository(db *gorm.DB) ForgotPasswordKeyRepository {
	return &forgotPasswordKeyRepository{db: db}
}

func (r *forgotPasswordKeyRepository) Create(ctx context.Context, key *models.ForgotPasswordKey) error {
	if err := r.db.WithContext(ctx).Create(key).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetValid collapses unknown and expired keys into one error.
func (r *forgotPasswordKeyRepository) GetValid(ctx context.Context, key string, now time.Time) (*models.ForgotPasswordKey, error) {
	var k models.ForgotPasswordKey
	err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", key, now).First(&k).Error
	if err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchForgotPasswordKey)
	}
	return &k, nil
}

// ConsumeAndSetPassword deletes a live key and sets its owner's password in
// one transaction. Only the caller whose DELETE removes the row succeeds.
func (r *forgotPasswordKeyRepository) ConsumeAndSetPassword(ctx context.Context, key string, now time.Time, passwordHash string) (uint, error) {
	var userID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var k models.ForgotPasswordKey
		if err := tx.Where("token = ? AND expires_at > ?", key, now).First(&k).Error; err != nil {
			return notFoundAs(err, models.KeyNoSuchForgotPasswordKey)
		}
		res := tx.Where("token = ? AND expires_at > ?", key, now).Delete(&models.ForgotPasswordKey{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected != 1 {
			return models.NewKeyedError(models.KeyNoSuchForgotPasswordKey)
		}
		res = tx.Model(&models.User{}).Where("id = ?", k.UserID).Update("password_hash", passwordHash)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewKeyedError(models.KeyNoSuchUser)
		}
		userID = k.UserID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// Delete revokes a key outright; deleting an unknown key is not an error.
func (r *forgotPasswordKeyRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", key).Delete(&models.ForgotPasswordKey{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *forgotPasswordKeyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.ForgotPasswordKey{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

// MediaRepository defines persistence operations for media records.
type MediaRepository interface {
	Create(ctx context.Context, m *models.Media) error
	GetByID(ctx context.Context, id string) (*models.Media, error)
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, m *models.Media) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mediaRepository) GetByID(ctx context.Context, id string) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchAttachment)
	}
	return &m, nil
}
