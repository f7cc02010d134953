package service

import (
	"context"
	"encoding/json"
	"fmt"

	"campusnest/internal/cache"
	"campusnest/internal/middleware"
	"campusnest/internal/models"
	"campusnest/internal/observability"
	"campusnest/internal/repository"
	"campusnest/internal/validation"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
)

const (
	WarningTitle         = "⚠️ Listing Reported - Action Required"
	warningContentFormat = `Your listing at "%s" has been reported for: %s. Please review and address this issue, or your listing may be removed.`

	DefaultAdminLogLimit = 50
	maxAdminLogLimit     = 500
)

// SubmitReportInput is a user's flag against a listing.
type SubmitReportInput struct {
	ReporterID uint   `json:"-"`
	ListingID  uint   `json:"listingId" validate:"required"`
	Reason     string `json:"reason" validate:"required,notblank,max=120"`
	Details    string `json:"details" validate:"max=2000"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers int64 `json:"totalUsers"`
	Buyers     int64 `json:"buyers"`
	Sellers    int64 `json:"sellers"`
	repository.ListingStats
	TotalChats int64 `json:"totalChats"`
}

// ModerationService runs the report lifecycle and audited admin actions.
// Every admin action commits its effects and its audit entry together.
type ModerationService struct {
	store         *repository.Store
	notifications *NotificationService
	rdb           *redis.Client
}

// NewModerationService returns a new ModerationService. rdb may be nil.
func NewModerationService(store *repository.Store, notifSvc *NotificationService, rdb *redis.Client) *ModerationService {
	return &ModerationService{store: store, notifications: notifSvc, rdb: rdb}
}

// SubmitReport files a pending report against an existing listing.
func (s *ModerationService) SubmitReport(ctx context.Context, in SubmitReportInput) (*models.Report, error) {
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.store.Listings.GetByID(ctx, in.ListingID); err != nil {
		return nil, err
	}

	report := &models.Report{
		ListingID:  in.ListingID,
		ReporterID: in.ReporterID,
		Reason:     in.Reason,
		Details:    in.Details,
		Status:     models.ReportStatusPending,
	}
	if err := s.store.Reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// ListReports returns reports newest first, optionally filtered by status.
func (s *ModerationService) ListReports(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	if status != "" && !status.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown report status %q", status))
	}
	return s.store.Reports.List(ctx, status, limit, offset)
}

// MarkReviewed moves a report to reviewed. Reviewing a reviewed report
// again changes nothing and is not audited.
func (s *ModerationService) MarkReviewed(ctx context.Context, adminID, reportID uint) (*models.Report, error) {
	var changed bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if changed, err = tx.Reports.UpdateStatus(ctx, reportID, models.ReportStatusReviewed, false); err != nil || !changed {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionReviewReport, models.AdminTargetReport, reportID, nil)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		observability.ReportTransitions.WithLabelValues(string(models.ReportStatusReviewed)).Inc()
	}
	return s.store.Reports.GetByID(ctx, reportID)
}

// WarnSeller sends the listing's seller a system alert and marks the report
// reviewed. A resolved report cannot be warned on.
func (s *ModerationService) WarnSeller(ctx context.Context, adminID, reportID uint) (*models.Report, error) {
	var (
		notice  *models.Notification
		changed bool
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		report, err := tx.Reports.GetByID(ctx, reportID)
		if err != nil {
			return err
		}
		if !report.Status.CanTransitionTo(models.ReportStatusReviewed) {
			return models.NewConflictError(fmt.Sprintf("Report is %s and cannot be warned on", report.Status))
		}
		if report.Listing == nil {
			return models.NewNotFoundError("Listing", report.ListingID)
		}

		notice, err = s.notifications.NotifyWith(ctx, tx.Notifications, NotifyInput{
			UserID:  report.Listing.SellerID,
			Type:    models.NotificationSystemAlert,
			Title:   WarningTitle,
			Content: fmt.Sprintf(warningContentFormat, report.Listing.Address, report.Reason),
			Link:    sellerDashboardLink,
		})
		if err != nil {
			return err
		}
		if changed, err = tx.Reports.UpdateStatus(ctx, reportID, models.ReportStatusReviewed, false); err != nil {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionWarnSeller, models.AdminTargetReport, reportID, map[string]any{
			"seller_id":  report.Listing.SellerID,
			"listing_id": report.ListingID,
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		observability.ReportTransitions.WithLabelValues(string(models.ReportStatusReviewed)).Inc()
	}
	s.notifications.Publish(ctx, notice)
	return s.store.Reports.GetByID(ctx, reportID)
}

// DeleteListingAndResolve marks the reported listing sold and resolves the
// report. Either both happen or neither does.
func (s *ModerationService) DeleteListingAndResolve(ctx context.Context, adminID, reportID uint) (*models.Report, error) {
	var changed bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		report, err := tx.Reports.GetByID(ctx, reportID)
		if err != nil {
			return err
		}
		if err := tx.Listings.SetStatus(ctx, report.ListingID, models.ListingStatusSold); err != nil {
			return err
		}
		if changed, err = tx.Reports.UpdateStatus(ctx, reportID, models.ReportStatusResolved, true); err != nil {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionDeleteListing, models.AdminTargetListing, report.ListingID, map[string]any{
			"report_id": reportID,
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		observability.ReportTransitions.WithLabelValues(string(models.ReportStatusResolved)).Inc()
	}
	s.invalidateStats(ctx)
	return s.store.Reports.GetByID(ctx, reportID)
}

// Resolve closes a report without touching the listing. Resolving a resolved
// report again succeeds without writing an audit entry.
func (s *ModerationService) Resolve(ctx context.Context, adminID, reportID uint) (*models.Report, error) {
	var changed bool
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if changed, err = tx.Reports.UpdateStatus(ctx, reportID, models.ReportStatusResolved, false); err != nil || !changed {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionResolveReport, models.AdminTargetReport, reportID, nil)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		observability.ReportTransitions.WithLabelValues(string(models.ReportStatusResolved)).Inc()
	}
	return s.store.Reports.GetByID(ctx, reportID)
}

// BanUser bans a user with a reason. Admins cannot ban themselves.
func (s *ModerationService) BanUser(ctx context.Context, adminID, userID uint, reason string) error {
	if adminID == userID {
		return models.NewValidationError("You cannot ban yourself")
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.SetBanned(ctx, userID, true, reason); err != nil {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionBanUser, models.AdminTargetUser, userID, map[string]any{
			"reason": reason,
		})
	})
}

// UnbanUser lifts a ban and clears its reason.
func (s *ModerationService) UnbanUser(ctx context.Context, adminID, userID uint) error {
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.SetBanned(ctx, userID, false, ""); err != nil {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionUnbanUser, models.AdminTargetUser, userID, nil)
	})
}

// AdminDeleteListing marks any listing sold outside the report flow.
func (s *ModerationService) AdminDeleteListing(ctx context.Context, adminID, listingID uint) error {
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Listings.SetStatus(ctx, listingID, models.ListingStatusSold); err != nil {
			return err
		}
		return s.audit(ctx, tx, adminID, models.AdminActionDeleteListing, models.AdminTargetListing, listingID, nil)
	})
	if err == nil {
		s.invalidateStats(ctx)
	}
	return err
}

// AdminStats returns the dashboard summary, cached for a minute.
func (s *ModerationService) AdminStats(ctx context.Context) (*AdminStats, error) {
	var stats AdminStats
	err := cache.CacheAside(ctx, s.rdb, cache.AdminStatsKey, &stats, cache.AdminStatsTTL, func() error {
		roles, err := s.store.Users.CountByRole(ctx)
		if err != nil {
			return err
		}
		listings, err := s.store.Listings.Stats(ctx)
		if err != nil {
			return err
		}
		chats, err := s.store.Chats.Count(ctx)
		if err != nil {
			return err
		}

		stats = AdminStats{
			Buyers:       roles[models.RoleBuyer],
			Sellers:      roles[models.RoleSeller],
			ListingStats: *listings,
			TotalChats:   chats,
		}
		for _, n := range roles {
			stats.TotalUsers += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// AdminLogs returns the newest audit entries. limit defaults to 50.
func (s *ModerationService) AdminLogs(ctx context.Context, limit int) ([]models.AdminLog, error) {
	if limit <= 0 {
		limit = DefaultAdminLogLimit
	}
	if limit > maxAdminLogLimit {
		limit = maxAdminLogLimit
	}
	return s.store.AdminLogs.List(ctx, limit)
}

func (s *ModerationService) audit(ctx context.Context, tx *repository.Store, adminID uint, action models.AdminAction, targetType string, targetID uint, details map[string]any) error {
	entry := &models.AdminLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return models.NewInternalError(err)
		}
		entry.Details = datatypes.JSON(raw)
	}
	if err := tx.AdminLogs.Create(ctx, entry); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "admin action", "admin_id", adminID, "action", action, "target_type", targetType, "target_id", targetID)
	return nil
}

func (s *ModerationService) invalidateStats(ctx context.Context) {
	cache.Invalidate(ctx, s.rdb, cache.AdminStatsKey)
}
