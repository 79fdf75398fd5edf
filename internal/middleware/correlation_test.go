package middleware_test

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/middleware"
)

func TestCorrelationIDReusesCallerHeader(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(middleware.CorrelationID(zerolog.New(&buf)))
	app.Get("/", func(c *fiber.Ctx) error {
		require.Equal(t, "req-42", middleware.CorrelationIDFromContext(c.UserContext()))
		zerolog.Ctx(c.UserContext()).Info().Msg("handled")
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "req-42", resp.Header.Get(middleware.HeaderCorrelationID))
	require.Contains(t, buf.String(), `"correlation_id":"req-42"`)
}

func TestCorrelationIDMintsWhenMissing(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.CorrelationID(zerolog.Nop()))
	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen = middleware.GetCorrelationID(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	require.Equal(t, seen, resp.Header.Get(middleware.HeaderCorrelationID))
}
