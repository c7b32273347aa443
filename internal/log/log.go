package log

import (
	"log/slog"
	"os"
	"strings"
)

// Config installs a JSON slog handler as the default logger, using the
// "severity" and "message" keys log collectors expect.
func Config(level string) {
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       ParseLevel(level),
		ReplaceAttr: replaceAttr,
	})

	logger := slog.New(jsonHandler)
	slog.SetDefault(logger)
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
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

func replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		lowerCaseLevel := strings.ToLower(a.Value.String())

		return slog.Attr{
			Key:   "severity",
			Value: slog.StringValue(lowerCaseLevel),
		}
	}

	if a.Key == slog.MessageKey {
		return slog.Attr{
			Key:   "message",
			Value: a.Value,
		}
	}

	return a
}
