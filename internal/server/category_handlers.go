package server

import (
	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetCategories handles GET /api/v1/categories
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := s.categoryRepo.List(c.Context())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, categories)
}

// CreateCategory handles POST /api/v1/categories. Unlike the tag resolver
// on item writes, an explicit create of an existing name is a conflict.
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}
	if req.Name == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Category name is required"))
	}

	userID := currentUserID(c)
	category := &models.Category{
		Name:      req.Name,
		Type:      models.CategoryTypeCustom,
		CreatedBy: &userID,
	}
	if err := s.categoryRepo.Create(c.Context(), category); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, category)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.categoryRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondMessage(c, fiber.StatusOK, "Category deleted")
}
