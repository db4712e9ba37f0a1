package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WIDTH", "1280")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SavePath != "example.svg" || cfg.AssetDir != "assets" {
		t.Errorf("paths = %q, %q", cfg.SavePath, cfg.AssetDir)
	}
	if cfg.Width != 1280 || cfg.Height != 600 {
		t.Errorf("viewport = %dx%d, want 1280x600", cfg.Width, cfg.Height)
	}
	if cfg.DocWidth != 1024 || cfg.DocHeight != 768 {
		t.Errorf("document = %dx%d, want 1024x768", cfg.DocWidth, cfg.DocHeight)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v, want debug", cfg.Level())
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("HEIGHT", "tall")
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted a non-numeric HEIGHT")
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " http://a , ,http://b"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Errorf("Origins = %q", got)
	}
}
