package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/thushan/relay/internal/logger"
)

func createTestLogger(w io.Writer) logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(w, nil)))
}

func TestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	var logs bytes.Buffer
	styledLogger := createTestLogger(&logs)

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) != "test-request-123" {
			t.Errorf("Expected request ID in context, got %q", GetRequestID(r.Context()))
		}
		if GetLogger(r.Context(), nil) == nil {
			t.Error("Expected request logger in context")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("test response"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Relay-Request-ID", "test-request-123")
	rr := httptest.NewRecorder()

	LoggingMiddleware(styledLogger)(testHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-Relay-Request-ID"); got != "test-request-123" {
		t.Errorf("Expected X-Relay-Request-ID 'test-request-123', got %q", got)
	}

	output := logs.String()
	if !strings.Contains(output, "Request completed") {
		t.Errorf("Expected completion log, got %q", output)
	}
	if !strings.Contains(output, "status=418") {
		t.Errorf("Expected status in log, got %q", output)
	}
	if !strings.Contains(output, "response_bytes=13") {
		t.Errorf("Expected response size in log, got %q", output)
	}
}

func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	var seen string
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	rr := httptest.NewRecorder()
	LoggingMiddleware(createTestLogger(io.Discard))(testHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("Expected a generated request ID")
	}
	if rr.Header().Get("X-Relay-Request-ID") != seen {
		t.Errorf("Header %q does not match context ID %q", rr.Header().Get("X-Relay-Request-ID"), seen)
	}
}

func TestResponseWriter_Flush(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: rr, status: http.StatusOK}

	if err := http.NewResponseController(wrapped).Flush(); err != nil {
		t.Fatalf("Expected flush to reach the recorder, got %v", err)
	}
	if !rr.Flushed {
		t.Error("Expected recorder to be flushed")
	}
}

func TestAccessLoggingMiddleware(t *testing.T) {
	var logs bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&logs, nil))

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/google?q=1", nil)
	AccessLoggingMiddleware(base)(testHandler).ServeHTTP(httptest.NewRecorder(), req)

	output := logs.String()
	for _, want := range []string{`"msg":"Access log"`, `"path":"/google"`, `"query":"q=1"`, `"response_bytes":2`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in access log, got %q", want, output)
		}
	}
}

func TestGetLogger_Fallback(t *testing.T) {
	fallback := createTestLogger(io.Discard)
	if GetLogger(context.Background(), fallback) != fallback {
		t.Error("Expected fallback logger outside a request")
	}
}
