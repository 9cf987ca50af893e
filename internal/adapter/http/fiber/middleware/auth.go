package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/crm-ia/internal/ports"
)

// AuthRequired validates the bearer token and stores the caller in locals.
// Websocket upgrades cannot set headers from a browser, so the token may
// also come from the "token" query parameter.
func AuthRequired(validator ports.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			authHeader := c.Get("Authorization")
			if authHeader == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "Missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "Invalid authorization header format"})
			}
			token = parts[1]
		}

		principal, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"ok": false, "error": "Invalid or expired token"})
		}

		c.Locals("user_id", principal.UserID)
		c.Locals("organisation_id", principal.OrganisationID)
		c.Locals("user_role", principal.Role)
		c.Locals("principal", principal)

		return c.Next()
	}
}

// AnonymousUser is mounted instead of AuthRequired when authentication is
// disabled: the user id is taken from the "userId" query parameter when present.
func AnonymousUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID := c.Query("userId"); userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	}
}

// PermissionChecker decides whether a role may act on a resource
type PermissionChecker interface {
	CheckPermission(ctx context.Context, role, resource, action string) bool
}

// RequirePermission rejects callers whose role lacks resource/action.
func RequirePermission(checker PermissionChecker, resource, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if !checker.CheckPermission(c.UserContext(), role, resource, action) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"ok": false, "error": "Forbidden"})
		}
		return c.Next()
	}
}
