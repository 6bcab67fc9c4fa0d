package repository

import (
	"context"
	"strings"

	"hearth/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetLocalByUsername(ctx context.Context, username string) (*models.User, error)
	GetLocalByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetSuspended(ctx context.Context, id uint, suspended bool) error
	SetAdmin(ctx context.Context, id uint, admin bool) error
	SetAvatar(ctx context.Context, id uint, mediaID *string) error
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchUser)
	}
	return &user, nil
}

func (r *userRepository) GetLocalByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("local AND LOWER(username) = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchLocalUserByName)
	}
	return &user, nil
}

func (r *userRepository) GetLocalByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("local AND LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error
	if err != nil {
		return nil, notFoundAs(err, models.KeyNoSuchLocalUserByEmail)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewKeyedError(models.KeyNameInUse).WithCause(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("email", "description").
		Updates(map[string]interface{}{"email": user.Email, "description": user.Description}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) update(ctx context.Context, id uint, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewKeyedError(models.KeyNoSuchUser)
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.update(ctx, id, "password_hash", hash)
}

func (r *userRepository) SetSuspended(ctx context.Context, id uint, suspended bool) error {
	return r.update(ctx, id, "suspended", suspended)
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	return r.update(ctx, id, "is_admin", admin)
}

func (r *userRepository) SetAvatar(ctx context.Context, id uint, mediaID *string) error {
	return r.update(ctx, id, "avatar_media_id", mediaID)
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("is_admin").Order("id").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
