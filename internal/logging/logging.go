package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"devfolio/internal/config"
)

// New 根据配置构建 slog.Logger：生产环境输出 JSON，开发环境使用 tint 彩色输出。
func New(cfg config.LogConfig, app config.AppConfig) *slog.Logger {
	return newLogger(os.Stdout, cfg, app)
}

func newLogger(w io.Writer, cfg config.LogConfig, app config.AppConfig) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	switch {
	case app.IsProduction() || strings.EqualFold(cfg.Format, "json"):
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}

	return slog.New(handler).With(
		slog.String("service", app.Name),
		slog.String("env", app.Environment),
	)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
