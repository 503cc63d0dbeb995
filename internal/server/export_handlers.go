package server

import (
	"fmt"
	"time"

	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ExportCSV handles GET /api/v1/export/csv. Exports cover the whole shared
// inventory, not just the caller's items.
func (s *Server) ExportCSV(c *fiber.Ctx) error {
	data, err := s.exportService.CSV(c.Context())
	if err != nil {
		return models.RespondWithError(c, err)
	}

	filename := fmt.Sprintf("inventory-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}

// ExportJSON handles GET /api/v1/export/json
func (s *Server) ExportJSON(c *fiber.Ctx) error {
	data, err := s.exportService.JSON(c.Context())
	if err != nil {
		return models.RespondWithError(c, err)
	}

	filename := fmt.Sprintf("inventory-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Set("Content-Type", "application/json; charset=utf-8")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}
