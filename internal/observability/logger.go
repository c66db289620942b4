package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const redacted = "[redacted]"

// keys whose values never reach the log output, matched case-insensitively
var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"token":         {},
	"access_token":  {},
	"authorization": {},
	"secret":        {},
	"jwt_secret":    {},
}

type LoggerConfig struct {
	Env     string
	Level   string // debug|info|warn|error; empty picks by Env
	Service string
}

func NewLogger(cfg LoggerConfig) *slog.Logger {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg LoggerConfig, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level, cfg.Env),
		ReplaceAttr: redactSensitive,
	})

	log := slog.New(NewContextHandler(handler))
	if cfg.Service != "" {
		log = log.With("service", cfg.Service)
	}
	return log
}

func parseLevel(raw, env string) slog.Level {
	var level slog.Level
	if raw != "" && level.UnmarshalText([]byte(raw)) == nil {
		return level
	}
	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func redactSensitive(_ []string, a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}
