package server

import (
	"io"

	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
)

// IdentifyPhoto handles POST /api/v1/ai/identify. Accepts a multipart
// "image" file and returns a suggested name, description, and categories.
func (s *Server) IdentifyPhoto(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("An image file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	ident, err := s.identifyService.Identify(c.Context(), data, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, ident)
}

// SemanticSearch handles POST /api/v1/ai/search. Falls back to local
// substring matching when the AI backend is absent or failing.
func (s *Server) SemanticSearch(c *fiber.Ctx) error {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	results, usedAI, err := s.searchService.Search(c.Context(), currentUserID(c), req.Query)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"results": results,
		"used_ai": usedAI,
	})
}
