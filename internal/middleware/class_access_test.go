package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/middleware"
)

func classApp(role string, classes []string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "u-1")
		c.Locals("user_role", role)
		if classes != nil {
			c.Locals("user_classes", classes)
		}
		return c.Next()
	})
	app.Get("/classes/:classId", middleware.RequireClassMember("classId"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRequireClassMemberAllowsListedClass(t *testing.T) {
	resp, err := classApp("student", []string{"class-a", "class-b"}).Test(httptest.NewRequest(http.MethodGet, "/classes/class-b", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireClassMemberRejectsOtherClass(t *testing.T) {
	resp, err := classApp("teacher", []string{"class-a"}).Test(httptest.NewRequest(http.MethodGet, "/classes/class-z", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestRequireClassMemberAdminBypass(t *testing.T) {
	resp, err := classApp("admin", nil).Test(httptest.NewRequest(http.MethodGet, "/classes/class-z", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "u-1")
		return c.Next()
	})
	app.Get("/classes/:classId", middleware.RateLimit("test", 2, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/classes/a", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/classes/a", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/classes/b", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
