package repository

import (
	"context"
	"errors"

	"campusnest/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	WithTx(tx *gorm.DB) NotificationRepository
	Create(ctx context.Context, n *models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	ListUnreadIDs(ctx context.Context, userID uint) ([]uint, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository returns a new NotificationRepository implementation.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) WithTx(tx *gorm.DB) NotificationRepository {
	return &notificationRepository{db: tx}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Notification", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &n, nil
}

// ListForUser returns the newest notifications first.
func (r *notificationRepository) ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

// MarkRead sets is_read. Repeating it on a read row still matches and succeeds.
func (r *notificationRepository) MarkRead(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Notification", id)
	}
	return nil
}

func (r *notificationRepository) ListUnreadIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
