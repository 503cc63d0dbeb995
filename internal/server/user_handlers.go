package server

import (
	"io"
	"strings"

	"homestash/internal/cache"
	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/v1/users/me. Profile reads go through the
// Redis cache; profile and avatar updates invalidate the entry.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var cached models.User
	if cache.GetJSON(c.Context(), cache.UserKey(userID), &cached) {
		return models.Respond(c, fiber.StatusOK, &cached)
	}

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("User", userID))
	}
	cache.SetJSON(c.Context(), cache.UserKey(userID), user, cache.UserTTL)
	return models.Respond(c, fiber.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me. Only the display name is
// mutable; email is the login identity and stays fixed.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name *string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, models.NewNotFoundError("User", userID))
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return models.RespondWithError(c,
				models.NewValidationError("Name cannot be empty"))
		}
		user.Name = name
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return models.RespondWithError(c, err)
	}
	cache.InvalidateUser(c.Context(), userID)
	return models.Respond(c, fiber.StatusOK, user)
}

// UploadAvatar handles POST /api/v1/users/me/avatar. Accepts a multipart
// "avatar" file, re-encodes it as webp, and replaces the previous avatar.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("An avatar file is required"))
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

	userID := currentUserID(c)
	user, err := s.avatarService.SetAvatar(c.Context(), userID, data)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	cache.InvalidateUser(c.Context(), userID)
	return models.Respond(c, fiber.StatusOK, user)
}
