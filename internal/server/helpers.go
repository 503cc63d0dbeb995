package server

import (
	"strconv"

	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
)

// currentUserID returns the authenticated user's ID from request locals.
// AuthRequired guarantees it is set on protected routes.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// parseIDParam parses a positive numeric path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, models.NewValidationError("Invalid " + name + " parameter")
	}
	return uint(id), nil
}
