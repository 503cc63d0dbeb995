package server

import (
	"strconv"
	"time"

	"homestash/internal/cache"
	"homestash/internal/models"
	"homestash/internal/repository"
	"homestash/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateItem handles POST /api/v1/items
func (s *Server) CreateItem(c *fiber.Ctx) error {
	var input service.CreateItemInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.itemService.Create(c.Context(), currentUserID(c), input)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, item)
}

// GetItems handles GET /api/v1/items with filtering, paging, and sorting.
func (s *Server) GetItems(c *fiber.Ctx) error {
	filters := repository.ListFilters{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 20),
		SortBy:   c.Query("sort_by", "created_at"),
		SortDir:  c.Query("sort_dir", "desc"),
	}

	if raw := c.Query("created_by"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("Invalid created_by parameter"))
		}
		filters.CreatedBy = uint(id)
	}
	if raw := c.Query("date_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("date_from must be RFC 3339"))
		}
		filters.DateFrom = &t
	}
	if raw := c.Query("date_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.RespondWithError(c,
				models.NewValidationError("date_to must be RFC 3339"))
		}
		filters.DateTo = &t
	}

	items, total, totalPages, err := s.itemService.List(c.Context(), filters)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"items":       items,
		"total":       total,
		"page":        filters.Page,
		"limit":       filters.Limit,
		"total_pages": totalPages,
	})
}

// GetItem handles GET /api/v1/items/:id. Single-item reads go through the
// Redis cache; every item mutation invalidates the entry.
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var cached models.Item
	if cache.GetJSON(c.Context(), cache.ItemKey(id), &cached) {
		return models.Respond(c, fiber.StatusOK, &cached)
	}

	item, err := s.itemService.Get(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cache.SetJSON(c.Context(), cache.ItemKey(id), item, cache.ItemTTL)
	return models.Respond(c, fiber.StatusOK, item)
}

// UpdateItem handles PUT /api/v1/items/:id. Absent fields are left
// unchanged; any authenticated user may edit any item.
func (s *Server) UpdateItem(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	var input service.UpdateItemInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	item, err := s.itemService.Update(c.Context(), id, currentUserID(c), input)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cache.InvalidateItem(c.Context(), id)
	return models.Respond(c, fiber.StatusOK, item)
}

// DeleteItem handles DELETE /api/v1/items/:id
func (s *Server) DeleteItem(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if _, err := s.itemService.Delete(c.Context(), id, currentUserID(c)); err != nil {
		return models.RespondWithError(c, err)
	}
	s.photoService.CleanupItemFiles(id)
	cache.InvalidateItem(c.Context(), id)
	return models.RespondMessage(c, fiber.StatusOK, "Item deleted")
}

// GetItemHistory handles GET /api/v1/items/:id/history
func (s *Server) GetItemHistory(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	history, err := s.itemService.History(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, history)
}
