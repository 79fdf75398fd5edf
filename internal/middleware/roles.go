package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Auth role constants carried in the user_role claim.
const (
	AuthRoleAny     = "any"
	AuthRoleAdmin   = "admin"
	AuthRoleTeacher = "teacher"
	AuthRoleStudent = "student"
)

// currentRole reads the caller's role from the request locals, lower-cased.
func currentRole(c *fiber.Ctx) string {
	role, _ := c.Locals("user_role").(string)
	return strings.ToLower(strings.TrimSpace(role))
}

// satisfiesRole reports whether a caller holding role may use a route guarded by required.
// Teacher routes are open to admins as well.
func satisfiesRole(role, required string) bool {
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleTeacher:
		return role == AuthRoleTeacher || role == AuthRoleAdmin
	default:
		return role == required
	}
}
