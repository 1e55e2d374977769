package middleware

import (
	"crypto/subtle"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/slippymap/slippy-backend/internal/config"
	"github.com/slippymap/slippy-backend/internal/dto"
)

// AdminRequired guards admin routes. Two ways in:
// 1. X-Admin-Token header matching the configured static token (cron callers)
// 2. Bearer token from the admin login endpoint with role=admin
func AdminRequired(cfg *config.Config) fiber.Handler {
	jwtGuard := jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		SuccessHandler: requireAdminRole,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "Unauthorized: invalid or expired token",
			})
		},
	})

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" {
			header := c.Get("X-Admin-Token")
			if header != "" && subtle.ConstantTimeCompare([]byte(header), []byte(cfg.AdminToken)) == 1 {
				return c.Next()
			}
		}
		return jwtGuard(c)
	}
}

func requireAdminRole(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return unauthorized(c)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized(c)
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
	return c.Next()
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
