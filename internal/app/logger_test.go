package app

import (
	"context"
	"log/slog"
	"testing"
)

func TestLogLevel(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
		want slog.Level
	}{
		{"nil config", nil, slog.LevelInfo},
		{"debug", &Config{LogLevel: "debug"}, slog.LevelDebug},
		{"warn", &Config{LogLevel: "WARN"}, slog.LevelWarn},
		{"warning alias", &Config{LogLevel: "warning"}, slog.LevelWarn},
		{"error", &Config{LogLevel: "error"}, slog.LevelError},
		{"unknown falls back", &Config{LogLevel: "verbose"}, slog.LevelInfo},
		{"empty falls back", &Config{}, slog.LevelInfo},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := logLevel(tc.cfg); got != tc.want {
				t.Fatalf("logLevel = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewLoggerHonorsLevel(t *testing.T) {
	logger := NewLogger(&Config{LogFormat: "json", LogLevel: "warn"})
	ctx := context.Background()
	if logger.Enabled(ctx, slog.LevelInfo) {
		t.Fatal("info should be suppressed at warn level")
	}
	if !logger.Enabled(ctx, slog.LevelWarn) {
		t.Fatal("warn should be enabled at warn level")
	}
}
