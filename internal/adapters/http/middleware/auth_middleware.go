package middleware

import (
	"errors"
	"strings"

	"investorconnect/internal/config"
	"investorconnect/internal/pkg/jwt"
	"investorconnect/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware requires a valid access token and stores the identity in
// Locals ("uid", "email", "name"). It does not look at roles.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Try Authorization header, then the cookie
		accessToken := bearerToken(c)
		if accessToken == "" {
			accessToken = c.Cookies("access_token")
		}

		// 2. No token found
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 3. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 4. Set identity in context
		c.Locals("uid", claims.UID)
		c.Locals("email", claims.Email)
		c.Locals("name", claims.Name)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
