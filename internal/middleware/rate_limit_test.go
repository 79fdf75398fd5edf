package middleware_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/middleware"
)

func TestRateLimitBucketsPerClass(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "u-1")
		return c.Next()
	})
	app.Post("/classes/:classId/rollback", middleware.RateLimit("rollback", 1, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	call := func(classID string) int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/classes/"+classID+"/rollback", nil), -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusNoContent, call("7a"))
	require.Equal(t, fiber.StatusTooManyRequests, call("7a"))
	require.Equal(t, fiber.StatusNoContent, call("7b"))
}
