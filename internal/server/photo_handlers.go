package server

import (
	"io"
	"mime"
	"path/filepath"

	"homestash/internal/cache"
	"homestash/internal/models"
	"homestash/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadPhotos handles POST /api/v1/items/:id/photos. Accepts multipart
// "photos" files with an optional "annotations" field applied to each.
func (s *Server) UploadPhotos(c *fiber.Ctx) error {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Multipart form data is required"))
	}

	files := form.File["photos"]
	if len(files) == 0 {
		return models.RespondWithError(c,
			models.NewValidationError("At least one photo is required"))
	}

	annotations := ""
	if values := form.Value["annotations"]; len(values) > 0 {
		annotations = values[0]
	}

	uploads := make([]service.PhotoUpload, 0, len(files))
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			return models.RespondWithError(c, models.NewInternalError(err))
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return models.RespondWithError(c, models.NewInternalError(err))
		}
		uploads = append(uploads, service.PhotoUpload{
			Filename:    fileHeader.Filename,
			Data:        data,
			Annotations: annotations,
		})
	}

	photos, err := s.photoService.Upload(c.Context(), itemID, uploads)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cache.InvalidateItem(c.Context(), itemID)
	return models.Respond(c, fiber.StatusCreated, photos)
}

// UpdatePhoto handles PUT /api/v1/photos/:id
func (s *Server) UpdatePhoto(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var input service.UpdatePhotoInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	photo, err := s.photoService.Update(c.Context(), id, input)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cache.InvalidateItem(c.Context(), photo.ItemID)
	return models.Respond(c, fiber.StatusOK, photo)
}

// DeletePhoto handles DELETE /api/v1/photos/:id
func (s *Server) DeletePhoto(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	photo, err := s.photoService.Delete(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cache.InvalidateItem(c.Context(), photo.ItemID)
	return models.RespondMessage(c, fiber.StatusOK, "Photo deleted")
}

// GetPhotoFile handles GET /api/v1/photos/:id/file. Unauthenticated: photo
// paths contain unguessable UUIDs and <img> tags cannot attach headers.
func (s *Server) GetPhotoFile(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	photo, data, err := s.photoService.File(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(photo.FilePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set("Content-Type", contentType)
	c.Set("Cache-Control", "public, max-age=86400")
	return c.Send(data)
}
