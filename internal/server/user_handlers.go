package server

import (
	"context"
	"errors"
	"time"

	"campusnest/internal/models"
	"campusnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user's profile
// @Description Returns the caller's profile including the server-side admin and ban flags
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	if user := currentUser(c); user != nil {
		return c.JSON(user)
	}

	user, err := s.userService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)

	user, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetPublicProfile(c.UserContext(), id)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetAllUsers handles GET /api/admin/users
// @Summary List users
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	page := parsePagination(c, 100)

	users, err := s.userService.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse{
				Error: "Request timeout",
			})
		}
		return s.respondServiceError(c, err)
	}

	return c.JSON(users)
}
