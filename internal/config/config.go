package config

import (
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	SavePath       string `envconfig:"SAVE_PATH" default:"example.svg"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"assets"`
	Width          uint32 `envconfig:"WIDTH" default:"800"`
	Height         uint32 `envconfig:"HEIGHT" default:"600"`
	DocWidth       uint32 `envconfig:"DOC_WIDTH" default:"1024"`
	DocHeight      uint32 `envconfig:"DOC_HEIGHT" default:"768"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	AuthSecret     string `envconfig:"AUTH_SECRET"`
	AuthPassword   string `envconfig:"AUTH_PASSWORD_HASH"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
