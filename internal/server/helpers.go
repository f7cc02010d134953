package server

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"campusnest/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dst, writing a 400 on failure.
func (s *Server) parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the caller set by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// currentUser returns the caller's row loaded by AuthRequired.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// mapServiceError maps service errors onto HTTP statuses.
func mapServiceError(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.StatusNotFound
	}
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// respondServiceError writes err with the status matching its code. Errors
// without an AppError in their chain are reported as internal.
func (s *Server) respondServiceError(c *fiber.Ctx, err error) error {
	status := mapServiceError(err)
	if status == fiber.StatusNotFound && models.ErrorCode(err) == "" {
		return models.RespondWithError(c, status, models.NewNotFoundError("Resource", c.Params("id")))
	}
	if status == fiber.StatusInternalServerError {
		if models.ErrorCode(err) == "" {
			err = models.NewInternalError(err)
		}
		c.Locals("error", err)
	}
	return models.RespondWithError(c, status, err)
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "listingId" -> "listing ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
