package server

import (
	"net/mail"
	"strings"

	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Register handles POST /api/v1/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || req.Password == "" || req.Name == "" {
		return models.RespondWithError(c,
			models.NewValidationError("Email, password, and name are required"))
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid email address"))
	}
	if len(req.Password) < 8 {
		return models.RespondWithError(c,
			models.NewValidationError("Password must be at least 8 characters"))
	}

	existing, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if existing != nil {
		return models.RespondWithError(c,
			models.NewConflictError("A user with this email already exists"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Email:    req.Email,
		Password: string(hashedPassword),
		Name:     req.Name,
	}
	if createErr := s.userRepo.Create(c.Context(), user); createErr != nil {
		return models.RespondWithError(c, createErr)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return models.Respond(c, fiber.StatusCreated, fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/v1/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid credentials"))
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	return models.Respond(c, fiber.StatusOK, fiber.Map{
		"token": token,
		"user":  user,
	})
}
