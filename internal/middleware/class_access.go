package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/jadwal-api/internal/utils"
)

// RequireClassMember rejects requests whose token does not list the class named by the route parameter.
// Admins may act on every class.
func RequireClassMember(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		classID := strings.TrimSpace(c.Params(param))
		if classID == "" {
			return utils.SendError(c, fiber.StatusBadRequest, "class id is required")
		}
		if currentRole(c) == AuthRoleAdmin {
			return c.Next()
		}

		classes, _ := c.Locals("user_classes").([]string)
		for _, id := range classes {
			if id == classID {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "not a member of this class")
	}
}
