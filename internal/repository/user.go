// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"campusnest/internal/database"
	"campusnest/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, fields map[string]any) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
	SetBanned(ctx context.Context, id uint, banned bool, reason string) error
	SetAdmin(ctx context.Context, id uint, admin bool) error
	IsAdmin(ctx context.Context, id uint) (bool, error)
	CountByRole(ctx context.Context) (map[models.UserRole]int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewConflictError("Email is already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", email)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// SetBanned flips the ban flag. Unbanning clears the timestamp and reason.
func (r *userRepository) SetBanned(ctx context.Context, id uint, banned bool, reason string) error {
	fields := map[string]any{
		"is_banned":     banned,
		"banned_at":     nil,
		"banned_reason": nil,
	}
	if banned {
		now := time.Now().UTC()
		fields["banned_at"] = &now
		fields["banned_reason"] = &reason
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", admin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id uint) (bool, error) {
	var flags []bool
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Pluck("is_admin", &flags).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	if len(flags) == 0 {
		return false, models.NewNotFoundError("User", id)
	}
	return flags[0], nil
}

func (r *userRepository) CountByRole(ctx context.Context) (map[models.UserRole]int64, error) {
	var rows []struct {
		Role  models.UserRole
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	out := map[models.UserRole]int64{models.RoleBuyer: 0, models.RoleSeller: 0}
	for _, row := range rows {
		out[row.Role] = row.Count
	}
	return out, nil
}
