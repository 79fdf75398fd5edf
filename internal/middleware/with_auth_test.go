package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/middleware"
)

func TestWithAuthGuards(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		role   string
		opts   middleware.AuthOptions
		status int
	}{
		{"student route accepts mixed-case role", "u-10", "Student", middleware.AuthOptions{Role: middleware.AuthRoleStudent}, fiber.StatusNoContent},
		{"student route rejects guest", "u-10", "guest", middleware.AuthOptions{Role: middleware.AuthRoleStudent}, fiber.StatusForbidden},
		{"teacher route accepts admin", "u-1", "admin", middleware.AuthOptions{Role: middleware.AuthRoleTeacher}, fiber.StatusNoContent},
		{"teacher route rejects student", "u-2", "student", middleware.AuthOptions{Role: middleware.AuthRoleTeacher}, fiber.StatusForbidden},
		{"blank role means any", "u-3", "student", middleware.AuthOptions{}, fiber.StatusNoContent},
		{"anonymous caller is rejected", "", "", middleware.AuthOptions{Role: middleware.AuthRoleAny}, fiber.StatusUnauthorized},
		{"anonymous caller allowed when opted in", "", "", middleware.AuthOptions{AllowAnonymous: true}, fiber.StatusNoContent},
		{"opt-in ignored on role routes", "", "", middleware.AuthOptions{Role: middleware.AuthRoleTeacher, AllowAnonymous: true}, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.userID != "" {
					c.Locals("user_id", tc.userID)
					c.Locals("user_role", tc.role)
				}
				return c.Next()
			})
			app.Get("/", middleware.WithAuth(func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusNoContent)
			}, tc.opts))

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
