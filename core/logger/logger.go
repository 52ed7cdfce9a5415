package logger

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. The debug level selects the development
// config; any other level is parsed onto the production config, falling back
// to info when it is unknown.
func New(cfg *Config) (*zap.Logger, error) {
	return build(cfg).Build()
}

func build(cfg *Config) zap.Config {
	var zc zap.Config
	if cfg.Level == "debug" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
			zc.Level = zap.NewAtomicLevelAt(level)
		}
	}

	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	} else {
		zc.Encoding = "json"
	}

	zc.EncoderConfig.LevelKey = "level"
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.MessageKey = "message"
	return zc
}

// Component returns a child logger named after a subsystem. A quiet component
// only logs warnings and errors.
func Component(l *zap.Logger, name string, quiet bool) *zap.Logger {
	l = l.Named(name)
	if quiet {
		l = l.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}
	return l
}

// WithRayID returns a logger carrying the ray_id set by the ray-id middleware.
func WithRayID(l *zap.Logger, c *fiber.Ctx) *zap.Logger {
	if rid, ok := c.Locals("ray_id").(string); ok && rid != "" {
		return l.With(zap.String("ray_id", rid))
	}
	return l
}
