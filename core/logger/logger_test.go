package logger_test

import (
	"net/http/httptest"
	"testing"

	"tenant-bootstrapper/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   logger.Config
		debug bool
		warn  bool
	}{
		{"Debug console", logger.Config{Level: "debug", Format: "console"}, true, true},
		{"Info json", logger.Config{Level: "info", Format: "json"}, false, true},
		{"Warn", logger.Config{Level: "warn", Format: "json"}, false, true},
		{"Unknown level falls back to info", logger.Config{Level: "loud", Format: "json"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := logger.New(&tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.debug, l.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.warn, l.Core().Enabled(zapcore.WarnLevel))
		})
	}
}

func TestWithRayID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	app := fiber.New()
	app.Get("/with", func(c *fiber.Ctx) error {
		c.Locals("ray_id", "ray-1")
		logger.WithRayID(base, c).Info("with")
		return nil
	})
	app.Get("/without", func(c *fiber.Ctx) error {
		logger.WithRayID(base, c).Info("without")
		return nil
	})

	_, err := app.Test(httptest.NewRequest("GET", "/with", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest("GET", "/without", nil))
	require.NoError(t, err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "ray-1", entries[0].ContextMap()["ray_id"])
	assert.NotContains(t, entries[1].ContextMap(), "ray_id")
}

func TestComponent(t *testing.T) {
	tests := []struct {
		name  string
		quiet bool
		want  int
	}{
		{"Normal", false, 2},
		{"Quiet", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			l := logger.Component(zap.New(core), "api", tt.quiet)

			l.Info("request sent")
			l.Warn("request retried")

			entries := logs.AllUntimed()
			require.Len(t, entries, tt.want)
			assert.Equal(t, "api", entries[0].LoggerName)
		})
	}
}
