package repository

import (
	"context"
	"errors"
	"fmt"

	"campusnest/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for listing reports.
type ReportRepository interface {
	WithTx(tx *gorm.DB) ReportRepository
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id uint, to models.ReportStatus, listingDeleted bool) (changed bool, err error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) WithTx(tx *gorm.DB) ReportRepository {
	return &reportRepository{db: tx}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).Preload("Listing").First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}

// List returns reports newest first. An empty status matches all.
func (r *reportRepository) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	q := r.db.WithContext(ctx).Preload("Listing").Preload("Reporter")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var reports []models.Report
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reports, nil
}

// UpdateStatus moves a report to `to` only from a status that may legally
// reach it. The guard is part of the UPDATE so concurrent admins cannot
// move a report backwards. changed is false when the report already had
// status `to`. listingDeleted is sticky once set.
func (r *reportRepository) UpdateStatus(ctx context.Context, id uint, to models.ReportStatus, listingDeleted bool) (changed bool, err error) {
	sources := models.SourcesFor(to)
	if len(sources) == 0 {
		return false, models.NewConflictError(fmt.Sprintf("Reports cannot move to %q", to))
	}

	fields := map[string]any{"status": to}
	if listingDeleted {
		fields["listing_deleted"] = true
	}

	moving := make([]models.ReportStatus, 0, len(sources))
	for _, s := range sources {
		if s != to {
			moving = append(moving, s)
		}
	}
	if len(moving) > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.Report{}).
			Where("id = ? AND status IN ?", id, moving).
			Updates(fields)
		if res.Error != nil {
			return false, models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 1 {
			return true, nil
		}
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if current.Status != to {
		return false, models.NewConflictError(fmt.Sprintf("Report is %s and cannot move to %s", current.Status, to))
	}
	if listingDeleted && !current.ListingDeleted {
		if err := r.db.WithContext(ctx).Model(&models.Report{}).
			Where("id = ?", id).
			Update("listing_deleted", true).Error; err != nil {
			return false, models.NewInternalError(err)
		}
	}
	return false, nil
}
