// middleware/token_auth.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TokenAuthMiddleware validates the bearer token sent with every API request.
// A raw token without the "Bearer " prefix is accepted too.
func TokenAuthMiddleware(expectedToken string, logger *zap.Logger) fiber.Handler {
	log := logger.Named("auth")

	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Debug("missing Authorization header", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication token missing",
			})
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Warn("invalid token", zap.String("path", c.Path()), zap.String("ip", c.IP()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid authentication token",
			})
		}

		return c.Next()
	}
}
