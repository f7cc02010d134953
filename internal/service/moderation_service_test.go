package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"campusnest/internal/middleware"
	"campusnest/internal/models"
	"campusnest/internal/observability"
	"campusnest/internal/testutil"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitReport(t *testing.T, f *fixture, reporterID, listingID uint) *models.Report {
	t.Helper()
	report, err := f.moderation.SubmitReport(context.Background(), SubmitReportInput{
		ReporterID: reporterID,
		ListingID:  listingID,
		Reason:     "Fake listing",
		Details:    "Photos are from another property",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusPending, report.Status)
	return report
}

func TestModerationService_SubmitReport_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, listing := f.marketplace(t)

	_, err := f.moderation.SubmitReport(ctx, SubmitReportInput{ReporterID: buyer.ID, ListingID: listing.ID, Reason: "  "})
	assert.Equal(t, models.CodeValidation, appCode(err))

	_, err = f.moderation.SubmitReport(ctx, SubmitReportInput{ReporterID: buyer.ID, ListingID: 999, Reason: "Scam"})
	assert.Equal(t, models.CodeNotFound, appCode(err))
}

func TestModerationService_ReportLifecycleIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, listing := f.marketplace(t)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)

	report := submitReport(t, f, buyer.ID, listing.ID)

	reviewed, err := f.moderation.MarkReviewed(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReviewed, reviewed.Status)

	resolved, err := f.moderation.Resolve(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)

	_, err = f.moderation.Resolve(ctx, admin.ID, report.ID)
	require.NoError(t, err, "repeated resolve is a no-op")

	_, err = f.moderation.MarkReviewed(ctx, admin.ID, report.ID)
	assert.Equal(t, models.CodeConflict, appCode(err))
	_, err = f.moderation.WarnSeller(ctx, admin.ID, report.ID)
	assert.Equal(t, models.CodeConflict, appCode(err))

	got, err := f.store.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, got.Status)
}

func TestModerationService_PendingCanResolveDirectly(t *testing.T) {
	f := newFixture(t)
	_, buyer, listing := f.marketplace(t)
	report := submitReport(t, f, buyer.ID, listing.ID)

	resolved, err := f.moderation.Resolve(context.Background(), 1, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	assert.False(t, resolved.ListingDeleted)
}

func TestModerationService_WarnSeller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seller, buyer, listing := f.marketplace(t)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)
	report := submitReport(t, f, buyer.ID, listing.ID)

	warned, err := f.moderation.WarnSeller(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReviewed, warned.Status)

	// A reviewed report may be warned on again and stays reviewed.
	warned, err = f.moderation.WarnSeller(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReviewed, warned.Status)

	notes := f.notificationsFor(t, seller.ID, models.NotificationSystemAlert)
	require.Len(t, notes, 2)
	assert.Equal(t, WarningTitle, notes[0].Title)
	assert.Equal(t,
		`Your listing at "12 Unilag Road" has been reported for: Fake listing. Please review and address this issue, or your listing may be removed.`,
		notes[0].Content)
	assert.Equal(t, "/dashboard/seller", notes[0].Link)

	logs, err := f.moderation.AdminLogs(ctx, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, models.AdminActionWarnSeller, logs[0].Action)

	var details map[string]any
	require.NoError(t, json.Unmarshal(logs[0].Details, &details))
	assert.EqualValues(t, seller.ID, details["seller_id"])
}

func TestModerationService_DeleteListingAndResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, listing := f.marketplace(t)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)
	report := submitReport(t, f, buyer.ID, listing.ID)

	resolved, err := f.moderation.DeleteListingAndResolve(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, resolved.Status)
	assert.True(t, resolved.ListingDeleted)

	got, err := f.store.Listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusSold, got.Status)

	// A later plain resolve keeps the cascade marker.
	again, err := f.moderation.Resolve(ctx, admin.ID, report.ID)
	require.NoError(t, err)
	assert.True(t, again.ListingDeleted)

	logs, err := f.moderation.AdminLogs(ctx, 0)
	require.NoError(t, err)
	actions := make([]models.AdminAction, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, models.AdminActionDeleteListing)
}

func TestModerationService_DeleteListingAndResolve_RollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, listing := f.marketplace(t)
	report := submitReport(t, f, buyer.ID, listing.ID)

	require.NoError(t, f.db.Exec(
		`CREATE TRIGGER fail_report_update BEFORE UPDATE ON reports BEGIN SELECT RAISE(ABORT, 'report update failed'); END;`,
	).Error)

	_, err := f.moderation.DeleteListingAndResolve(ctx, 1, report.ID)
	require.Error(t, err)

	got, err := f.store.Listings.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, got.Status, "listing update must roll back with the report")

	var logs int64
	require.NoError(t, f.db.Model(&models.AdminLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}

func TestModerationService_BanAndUnban(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)
	target := testutil.CreateUser(t, f.db, "spammer", models.RoleSeller)

	assert.Equal(t, models.CodeValidation, appCode(f.moderation.BanUser(ctx, admin.ID, admin.ID, "oops")))

	require.NoError(t, f.moderation.BanUser(ctx, admin.ID, target.ID, "spam"))
	banned, err := f.store.Users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned)
	require.NotNil(t, banned.BannedReason)
	assert.Equal(t, "spam", *banned.BannedReason)
	assert.NotNil(t, banned.BannedAt)

	require.NoError(t, f.moderation.UnbanUser(ctx, admin.ID, target.ID))
	unbanned, err := f.store.Users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, unbanned.IsBanned)
	assert.Nil(t, unbanned.BannedReason)
	assert.Nil(t, unbanned.BannedAt)

	assert.Equal(t, models.CodeNotFound, appCode(f.moderation.BanUser(ctx, admin.ID, 9999, "x")))

	logs, err := f.moderation.AdminLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AdminActionUnbanUser, logs[0].Action)
	assert.Equal(t, models.AdminActionBanUser, logs[1].Action)
}

func TestModerationService_AdminStats(t *testing.T) {
	f := newFixture(t, withRedis())
	ctx := context.Background()
	seller, buyer, listing := f.marketplace(t)
	second := testutil.CreateListing(t, f.db, seller.ID, "4 Herbert Macaulay Way")
	_, err := f.chats.FindOrCreateChat(ctx, listing.ID, buyer.ID, seller.ID)
	require.NoError(t, err)

	stats, err := f.moderation.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.Buyers)
	assert.Equal(t, int64(1), stats.Sellers)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(2), stats.Active)
	assert.Equal(t, int64(0), stats.Sold)
	assert.Equal(t, int64(1), stats.TotalChats)

	require.NoError(t, f.moderation.AdminDeleteListing(ctx, 1, second.ID))

	stats, err = f.moderation.AdminStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Sold)
	assert.InDelta(t, second.Price, stats.TotalVolume, 0.001)

	raw, err := json.Marshal(stats)
	require.NoError(t, err)
	for _, key := range []string{"totalUsers", "buyers", "sellers", "totalListings", "activeListings", "soldListings", "totalChats", "totalVolume"} {
		assert.Contains(t, string(raw), `"`+key+`"`)
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestModerationService_RepeatedResolveIsNotAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, listing := f.marketplace(t)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)
	report := submitReport(t, f, buyer.ID, listing.ID)

	resolvedTotal := observability.ReportTransitions.WithLabelValues(string(models.ReportStatusResolved))
	before := counterValue(t, resolvedTotal)

	for i := 0; i < 3; i++ {
		got, err := f.moderation.Resolve(ctx, admin.ID, report.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ReportStatusResolved, got.Status)
	}

	var entries int64
	require.NoError(t, f.db.Model(&models.AdminLog{}).
		Where("action = ?", models.AdminActionResolveReport).
		Count(&entries).Error)
	assert.Equal(t, int64(1), entries)
	assert.Equal(t, before+1, counterValue(t, resolvedTotal))
}

func TestModerationService_RepeatedReviewIsNotAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, buyer, listing := f.marketplace(t)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)
	report := submitReport(t, f, buyer.ID, listing.ID)

	for i := 0; i < 2; i++ {
		_, err := f.moderation.MarkReviewed(ctx, admin.ID, report.ID)
		require.NoError(t, err)
	}

	var entries int64
	require.NoError(t, f.db.Model(&models.AdminLog{}).
		Where("action = ?", models.AdminActionReviewReport).
		Count(&entries).Error)
	assert.Equal(t, int64(1), entries)
}

func TestModerationService_AuditLogCarriesRequestContext(t *testing.T) {
	var buf bytes.Buffer
	orig := middleware.Logger
	middleware.Logger = middleware.NewLogger("production", &buf)
	t.Cleanup(func() { middleware.Logger = orig })

	f := newFixture(t)
	_, buyer, listing := f.marketplace(t)
	admin := testutil.CreateUser(t, f.db, "admin", models.RoleBuyer)
	report := submitReport(t, f, buyer.ID, listing.ID)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-audit")
	_, err := f.moderation.Resolve(ctx, admin.ID, report.ID)
	require.NoError(t, err)

	var record map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var r map[string]any
		if json.Unmarshal(line, &r) == nil && r["msg"] == "admin action" {
			record = r
		}
	}
	require.NotNil(t, record, "audit line not logged: %s", buf.String())
	assert.Equal(t, "req-audit", record["request_id"])
	assert.Equal(t, string(models.AdminActionResolveReport), record["action"])
	assert.Equal(t, float64(admin.ID), record["admin_id"])
}
