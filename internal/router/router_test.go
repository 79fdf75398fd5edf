package router_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jadwal-api/internal/config"
	"github.com/noah-isme/jadwal-api/internal/handler"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/router"
)

type openAPISpec struct {
	Paths map[string]map[string]json.RawMessage `json:"paths"`
}

var routeParam = regexp.MustCompile(`:([A-Za-z]+)`)

// authenticated stands in for the JWT middleware with a student outside every class.
func authenticated(c *fiber.Ctx) error {
	c.Locals("user_id", "u-1")
	c.Locals("user_role", "student")
	return c.Next()
}

func fullApp(jwt fiber.Handler) *fiber.App {
	logger := zerolog.Nop()
	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		JWTMiddleware:              jwt,
		HistoryHandler:             handler.NewHistoryHandler(nil, nil, logger),
		HistoryStreamHandler:       handler.NewHistoryStreamHandler(nil, logger),
		SubjectHandler:             handler.NewRecordHandler[models.Subject](nil, "subject", logger),
		EventHandler:               handler.NewRecordHandler[models.Event](nil, "event", logger),
		GeneralAnnouncementHandler: handler.NewRecordHandler[models.GeneralAnnouncement](nil, "general announcement", logger),
		AssignmentHandler:          handler.NewRecordHandler[models.Assignment](nil, "assignment", logger),
		SettingsHandler:            handler.NewSettingsHandler(nil, logger),
		TimetableHandler:           handler.NewTimetableHandler(nil, logger),
		DailyAnnouncementHandler:   handler.NewDailyAnnouncementHandler(nil, logger),
		InquiryHandler:             handler.NewInquiryHandler(nil, logger),
	})
	return app
}

func TestEveryRouteIsDocumented(t *testing.T) {
	spec := loadSpec(t, "docs/api/jadwal.json")
	app := fullApp(authenticated)

	documented := 0
	for _, route := range app.GetRoutes(true) {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		method := strings.ToLower(route.Method)
		switch method {
		case "get", "post", "put", "patch", "delete":
		default:
			continue
		}

		path := strings.TrimSuffix(route.Path, "/")
		path = routeParam.ReplaceAllString(path, "{$1}")

		operations, ok := spec.Paths[path]
		require.True(t, ok, "route %s %s is missing from the API document", route.Method, path)
		_, ok = operations[method]
		require.True(t, ok, "route %s %s is missing from the API document", route.Method, path)
		documented++
	}
	require.NotZero(t, documented)
}

func TestClassRoutesRequireMembership(t *testing.T) {
	app := fullApp(authenticated)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/classes/class-7b/history", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestClassRoutesFailClosedWithoutAuthentication(t *testing.T) {
	app := fullApp(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/classes/class-7b/history", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsEndpointIsExposed(t *testing.T) {
	app := fullApp(authenticated)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "jadwal_history_stream_clients")
}

func loadSpec(t *testing.T, relative string) openAPISpec {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "failed to resolve caller")
	base := filepath.Join(filepath.Dir(filename), "..", "..")

	raw, err := os.ReadFile(filepath.Join(base, relative))
	require.NoError(t, err)

	var spec openAPISpec
	require.NoError(t, json.Unmarshal(raw, &spec))
	return spec
}
