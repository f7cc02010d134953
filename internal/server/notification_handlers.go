package server

import (
	"campusnest/internal/models"
	"campusnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary The caller's notifications
// @Description Newest first. limit defaults to 20 and is capped at 100.
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", service.DefaultNotificationLimit)

	items, err := s.notificationService.List(c.UserContext(), currentUserID(c), limit)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(items)
}

// GetUnreadCount handles GET /api/notifications/unread-count
// @Summary Unread notification count
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{count=int}
// @Router /notifications/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
// @Summary Mark one notification read
// @Description Idempotent: marking a read notification again succeeds.
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id}/read [post]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	n, err := s.notificationService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	if n.UserID != currentUserID(c) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only update your own notifications"))
	}

	if err := s.notificationService.MarkRead(c.UserContext(), id); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
// @Summary Mark every notification read
// @Description Each unread notification is attempted. A partial failure answers 500 with the number that were updated.
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{updated=int}
// @Failure 500 {object} object{error=string,code=string,updated=int}
// @Router /notifications/read-all [post]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	updated, err := s.notificationService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		c.Locals("error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Some notifications could not be marked as read",
			"code":    models.CodeInternal,
			"updated": updated,
		})
	}
	return c.JSON(fiber.Map{"updated": updated})
}
