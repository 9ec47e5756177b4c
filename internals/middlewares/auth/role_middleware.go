package auth

import (
	"github.com/gofiber/fiber/v2"

	helperAuth "propertytools_backend/internals/helpers/auth"
)

// OnlyRoles lets the request through when the token carries one of roles.
func OnlyRoles(message string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if helperAuth.GetRoles(c) == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - Role not found")
		}
		if helperAuth.HasAnyRole(c, roles...) {
			return c.Next()
		}
		if message == "" {
			message = "Forbidden: you are not authorized to access this resource"
		}
		return fiber.NewError(fiber.StatusForbidden, message)
	}
}
