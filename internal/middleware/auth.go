package middleware

import (
	"strconv"
	"strings"

	"homestash/internal/config"
	"homestash/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token issuer/audience. The core trusts the identity in a valid token
// unconditionally once it is attached to the request context.
const (
	TokenIssuer   = "homestash-api"
	TokenAudience = "homestash-client"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// AuthRequired is a middleware that enforces authentication for protected
// routes. The credential carries {user id, email, display name}; websocket
// upgrades may pass it via the "token" query parameter instead of the
// Authorization header.
func AuthRequired(c *fiber.Ctx) error {
	tokenString := ""
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}

	if tokenString == "" {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Authorization required"))
	}

	// Parse and validate token
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid or expired token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid token claims"))
	}

	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != TokenIssuer {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid token issuer"))
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != TokenAudience {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid token audience"))
	}

	// Extract user ID from subject claim
	sub, ok := claims["sub"].(string)
	if !ok {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid subject claim"))
	}

	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return models.RespondWithError(c,
			models.NewUnauthorizedError("Invalid user ID in token"))
	}

	// Store identity in context
	c.Locals("userID", uint(userID))
	if email, emailOk := claims["email"].(string); emailOk {
		c.Locals("userEmail", email)
	}
	if name, nameOk := claims["name"].(string); nameOk {
		c.Locals("userName", name)
	}

	return c.Next()
}
