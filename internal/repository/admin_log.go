package repository

import (
	"context"

	"campusnest/internal/models"

	"gorm.io/gorm"
)

// AdminLogRepository appends and reads the admin audit trail.
type AdminLogRepository interface {
	WithTx(tx *gorm.DB) AdminLogRepository
	Create(ctx context.Context, entry *models.AdminLog) error
	List(ctx context.Context, limit int) ([]models.AdminLog, error)
}

type adminLogRepository struct {
	db *gorm.DB
}

// NewAdminLogRepository returns a new AdminLogRepository implementation.
func NewAdminLogRepository(db *gorm.DB) AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) WithTx(tx *gorm.DB) AdminLogRepository {
	return &adminLogRepository{db: tx}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *adminLogRepository) List(ctx context.Context, limit int) ([]models.AdminLog, error) {
	var logs []models.AdminLog
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return logs, nil
}
