package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger. Debug output is enabled outside
// production.
func Setup(production bool) slog.Handler {
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return handler
}
