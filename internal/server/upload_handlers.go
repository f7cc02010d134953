package server

import (
	"io"

	"campusnest/internal/models"
	"campusnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadMedia handles POST /api/uploads/:bucket
// @Summary Upload a photo or video
// @Description Images are re-encoded as WebP. Videos are accepted in the listings bucket only.
// @Tags uploads
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param bucket path string true "listings or avatars"
// @Param file formData file true "File to upload"
// @Success 201 {object} object{url=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /uploads/{bucket} [post]
func (s *Server) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read upload"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read upload"))
	}

	url, err := s.mediaService.Upload(c.UserContext(), service.UploadMediaInput{
		Bucket:      c.Params("bucket"),
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
