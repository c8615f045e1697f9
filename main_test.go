package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"widgets/internal/config"
	"widgets/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) (*fiber.App, *services.WidgetService) {
	t.Helper()
	v := config.New()
	v.Set("DATABASE_DRIVER", config.DriverMemory)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	return NewApp(cfg, nil, nil, zaptest.NewLogger(t))
}

func TestNewApp_Routes(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodPost, "/v1/widgets", strings.NewReader(`{"name":"Sprocket","price":12.5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestNewApp_CORSPreflight(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/widgets", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestSeedWidgets(t *testing.T) {
	_, service := newTestApp(t)

	seedWidgets(service, zaptest.NewLogger(t))
	widgets, err := service.GetAllWidgets(context.Background())
	require.NoError(t, err)
	require.Len(t, widgets, 3)
	assert.Equal(t, "Sprocket", widgets[0].Name)
	assert.Nil(t, widgets[2].Description)

	// Seeding twice skips the names already taken.
	seedWidgets(service, zaptest.NewLogger(t))
	widgets, err = service.GetAllWidgets(context.Background())
	require.NoError(t, err)
	assert.Len(t, widgets, 3)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := newLogger(level)
		require.NoError(t, err, level)

		lvl, err := zapcore.ParseLevel(level)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(lvl))
		assert.False(t, logger.Core().Enabled(lvl-1), level)
	}

	_, err := newLogger("loud")
	assert.Error(t, err)
}
