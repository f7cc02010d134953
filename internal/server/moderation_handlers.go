package server

import (
	"context"
	"strings"

	"campusnest/internal/models"
	"campusnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxBanReasonLen = 500

// BanUserRequest is the body of POST /api/admin/users/:id/ban.
type BanUserRequest struct {
	Reason string `json:"reason"`
}

// SubmitReport handles POST /api/reports
// @Summary Report a listing
// @Tags reports
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.SubmitReportInput true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) SubmitReport(c *fiber.Ctx) error {
	var req service.SubmitReportInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	req.ReporterID = currentUserID(c)

	report, err := s.moderationService.SubmitReport(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReports handles GET /api/admin/reports
// @Summary List reports
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, reviewed or resolved"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Report
// @Router /admin/reports [get]
func (s *Server) GetReports(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	status := models.ReportStatus(strings.TrimSpace(c.Query("status")))

	reports, err := s.moderationService.ListReports(c.UserContext(), status, page.Limit, page.Offset)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(reports)
}

// ReviewReport handles POST /api/admin/reports/:id/review
// @Summary Mark a report reviewed
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} models.Report
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/reports/{id}/review [post]
func (s *Server) ReviewReport(c *fiber.Ctx) error {
	return s.reportAction(c, s.moderationService.MarkReviewed)
}

// WarnSeller handles POST /api/admin/reports/:id/warn
// @Summary Warn the reported listing's seller
// @Description Sends the seller a system alert and marks the report reviewed.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} models.Report
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/reports/{id}/warn [post]
func (s *Server) WarnSeller(c *fiber.Ctx) error {
	return s.reportAction(c, s.moderationService.WarnSeller)
}

// DeleteReportedListing handles POST /api/admin/reports/:id/delete-listing
// @Summary Delete the reported listing and resolve the report
// @Description Marks the listing sold and resolves the report in one transaction.
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} models.Report
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/reports/{id}/delete-listing [post]
func (s *Server) DeleteReportedListing(c *fiber.Ctx) error {
	return s.reportAction(c, s.moderationService.DeleteListingAndResolve)
}

// ResolveReport handles POST /api/admin/reports/:id/resolve
// @Summary Resolve a report without deleting the listing
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} models.Report
// @Router /admin/reports/{id}/resolve [post]
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	return s.reportAction(c, s.moderationService.Resolve)
}

type reportActionFunc func(ctx context.Context, adminID, reportID uint) (*models.Report, error)

func (s *Server) reportAction(c *fiber.Ctx, action reportActionFunc) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	report, err := action(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(report)
}

// BanUser handles POST /api/admin/users/:id/ban
// @Summary Ban a user
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Param id path int true "User ID"
// @Param request body BanUserRequest false "Reason"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/ban [post]
func (s *Server) BanUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req BanUserRequest
	if len(c.Body()) > 0 {
		if err := s.parseBody(c, &req); err != nil {
			return nil
		}
	}
	reason := strings.TrimSpace(req.Reason)
	if len(reason) > maxBanReasonLen {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Ban reason is too long"))
	}

	if err := s.moderationService.BanUser(c.UserContext(), currentUserID(c), id, reason); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UnbanUser handles POST /api/admin/users/:id/unban
// @Summary Lift a ban
// @Tags admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users/{id}/unban [post]
func (s *Server) UnbanUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.moderationService.UnbanUser(c.UserContext(), currentUserID(c), id); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetAdminStats handles GET /api/admin/stats
// @Summary Dashboard totals
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.AdminStats
// @Router /admin/stats [get]
func (s *Server) GetAdminStats(c *fiber.Ctx) error {
	stats, err := s.moderationService.AdminStats(c.UserContext())
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// GetAdminLogs handles GET /api/admin/logs
// @Summary Audit log
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Entries (default 50)"
// @Success 200 {array} models.AdminLog
// @Router /admin/logs [get]
func (s *Server) GetAdminLogs(c *fiber.Ctx) error {
	logs, err := s.moderationService.AdminLogs(c.UserContext(), c.QueryInt("limit", service.DefaultAdminLogLimit))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(logs)
}
