package logger

import (
	"fmt"
	"log/slog"

	"github.com/thushan/relay/internal/core/constants"
)

// PlainStyledLogger implements StyledLogger without formatting
type PlainStyledLogger struct {
	logger *slog.Logger
}

func NewPlainStyledLogger(logger *slog.Logger) *PlainStyledLogger {
	return &PlainStyledLogger{
		logger: logger,
	}
}

func (sl *PlainStyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *PlainStyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *PlainStyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *PlainStyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *PlainStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s (%d)", msg, count), args...)
}

func (sl *PlainStyledLogger) InfoWithRoute(msg string, route string, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, route), args...)
}

func (sl *PlainStyledLogger) InfoWithUpstream(msg string, upstream string, args ...any) {
	sl.logger.Info(fmt.Sprintf("%s %s", msg, upstream), args...)
}

func (sl *PlainStyledLogger) WarnWithUpstream(msg string, upstream string, args ...any) {
	sl.logger.Warn(fmt.Sprintf("%s %s", msg, upstream), args...)
}

func (sl *PlainStyledLogger) ErrorWithUpstream(msg string, upstream string, args ...any) {
	sl.logger.Error(fmt.Sprintf("%s %s", msg, upstream), args...)
}

func (sl *PlainStyledLogger) InfoWithSignal(msg string, signal string, args ...any) {
	sl.logger.Info(fmt.Sprintf("[%s] %s", signal, msg), args...)
}

func (sl *PlainStyledLogger) InfoWithStatus(msg string, status string, args ...any) {
	sl.logger.Info(fmt.Sprintf("[ %s ] %s", status, msg), args...)
}

func (sl *PlainStyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *PlainStyledLogger) WithRequestID(requestID string) StyledLogger {
	return sl.With(constants.ContextRequestIdKey, requestID)
}

func (sl *PlainStyledLogger) With(args ...any) StyledLogger {
	return &PlainStyledLogger{
		logger: sl.logger.With(args...),
	}
}
