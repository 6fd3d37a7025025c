package logger

import (
	"log/slog"
	"os"
)

// FatalWithLogger logs msg at error level and exits with status 1. Deferred
// cleanups do not run, so only use it before anything needs tearing down.
func FatalWithLogger(logger *slog.Logger, msg string, args ...any) {
	logger.Error(msg, args...)
	os.Exit(1)
}
