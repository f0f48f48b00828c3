package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/pagemark/internal/document"
	"github.com/inamate/pagemark/internal/engine"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"2h"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"52428800"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`

	// Editor behaviour
	MinScale      float64 `envconfig:"MIN_SCALE" default:"0.5"`
	MaxScale      float64 `envconfig:"MAX_SCALE" default:"3"`
	DefaultScale  float64 `envconfig:"DEFAULT_SCALE" default:"1"`
	ZoomStep      float64 `envconfig:"ZOOM_STEP" default:"0.2"`
	DragThreshold float64 `envconfig:"DRAG_THRESHOLD" default:"3"`
	MinBoxSize    float64 `envconfig:"MIN_BOX_SIZE" default:"20"`
	MinRadius     float64 `envconfig:"MIN_RADIUS" default:"10"`
	HandleRadius  float64 `envconfig:"HANDLE_RADIUS" default:"6"`
	HistoryLimit  int     `envconfig:"HISTORY_LIMIT" default:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.MinScale <= 0 || cfg.MaxScale < cfg.MinScale {
		return nil, fmt.Errorf("scale range [%v, %v] is empty", cfg.MinScale, cfg.MaxScale)
	}
	return &cfg, nil
}

// EngineOptions returns the editor settings for new engines.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.MinScale = c.MinScale
	opts.MaxScale = c.MaxScale
	opts.DefaultScale = c.DefaultScale
	opts.ZoomStep = c.ZoomStep
	opts.DragThreshold = c.DragThreshold
	opts.HandleRadius = c.HandleRadius
	opts.Limits = document.Limits{MinBoxSize: c.MinBoxSize, MinRadius: c.MinRadius}
	opts.HistoryLimit = c.HistoryLimit
	return opts
}

// Level maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
