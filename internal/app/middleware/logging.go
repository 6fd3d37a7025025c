package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/docker/go-units"

	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/logger"
	"github.com/thushan/relay/internal/util"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	LoggerKey    contextKey = "logger"
)

// responseWriter captures status and size for the completion log line
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	size, err := rw.ResponseWriter.Write(b)
	rw.size += int64(size)
	return size, err
}

func (rw *responseWriter) WriteHeader(s int) {
	if !rw.wroteHeader {
		rw.status = s
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(s)
}

// Flush passes through so proxied bodies stream instead of buffering
func (rw *responseWriter) Flush() {
	rw.wroteHeader = true
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the real writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// GetLogger returns the request scoped logger, or fallback outside a request
func GetLogger(ctx context.Context, fallback logger.StyledLogger) logger.StyledLogger {
	if l, ok := ctx.Value(LoggerKey).(logger.StyledLogger); ok {
		return l
	}
	return fallback
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggingMiddleware tags every request with an ID, echoes it back in
// X-Relay-Request-ID and logs the request when it completes.
func LoggingMiddleware(styledLogger logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(constants.HeaderRequestID)
			if requestID == "" {
				requestID = util.GenerateRequestID()
			}

			requestLogger := styledLogger.WithRequestID(requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, LoggerKey, requestLogger)

			w.Header().Set(constants.HeaderRequestID, requestID)
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			requestLogger.Debug("Request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent())

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			duration := time.Since(start)
			requestLogger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration_ms", duration.Milliseconds(),
				"response_bytes", wrapped.size,
				"response_size", units.HumanSize(float64(wrapped.size)))
		})
	}
}

// AccessLoggingMiddleware writes a detailed access record that only the log
// file receives
func AccessLoggingMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			base.InfoContext(logger.WithDetailed(r.Context()), "Access log",
				"timestamp", start.Format(time.RFC3339),
				constants.ContextRequestIdKey, w.Header().Get(constants.HeaderRequestID),
				"remote_addr", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", wrapped.status,
				"response_bytes", wrapped.size,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
				"referer", r.Referer())
		})
	}
}
