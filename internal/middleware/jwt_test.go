package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/middleware"
)

func TestJWTProtectedPopulatesLocals(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     "teacher-7",
		"role":    "Teacher",
		"classes": []string{"class-a"},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	var userID, role string
	var classes []string
	app := fiber.New()
	app.Get("/", middleware.JWTProtected("secret"), func(c *fiber.Ctx) error {
		userID, _ = c.Locals("user_id").(string)
		role, _ = c.Locals("user_role").(string)
		classes, _ = c.Locals("user_classes").([]string)
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, "teacher-7", userID)
	require.Equal(t, "teacher", role)
	require.Equal(t, []string{"class-a"}, classes)
}

func TestJWTProtectedRejectsWrongSecret(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other"))
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/", middleware.JWTProtected("secret"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
