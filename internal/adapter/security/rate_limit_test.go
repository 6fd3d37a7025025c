package security

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/relay/internal/adapter/stats"
	"github.com/thushan/relay/internal/config"
	"github.com/thushan/relay/internal/logger"
	"github.com/thushan/relay/internal/router"
)

func createTestLogger() logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(config.ServerRateLimits{}, nil, createTestLogger())
	defer rl.Stop()

	now := time.Now()
	for i := 0; i < 1000; i++ {
		require.True(t, rl.Allow("10.0.0.1", now).Allowed)
	}
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(config.ServerRateLimits{
		PerIPRequestsPerMinute: 60,
		BurstSize:              3,
	}, nil, createTestLogger())
	defer rl.Stop()

	now := time.Now()
	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1", now).Allowed, "request %d within burst", i)
	}

	decision := rl.Allow("10.0.0.1", now)
	assert.False(t, decision.Allowed)
	assert.GreaterOrEqual(t, decision.RetryAfter, 1)

	// separate bucket per client
	assert.True(t, rl.Allow("10.0.0.2", now).Allowed)

	// one token per second refills
	assert.True(t, rl.Allow("10.0.0.1", now.Add(1100*time.Millisecond)).Allowed)
}

func TestRateLimiter_Global(t *testing.T) {
	rl := NewRateLimiter(config.ServerRateLimits{
		GlobalRequestsPerMinute: 60,
		BurstSize:               2,
	}, nil, createTestLogger())
	defer rl.Stop()

	now := time.Now()
	assert.True(t, rl.Allow("10.0.0.1", now).Allowed)
	assert.True(t, rl.Allow("10.0.0.2", now).Allowed)
	assert.False(t, rl.Allow("10.0.0.3", now).Allowed)
}

func TestRateLimiter_GlobalAndPerIP(t *testing.T) {
	rl := NewRateLimiter(config.ServerRateLimits{
		GlobalRequestsPerMinute: 60,
		PerIPRequestsPerMinute:  60,
		BurstSize:               2,
	}, nil, createTestLogger())
	defer rl.Stop()

	now := time.Now()
	assert.True(t, rl.Allow("10.0.0.1", now).Allowed)
	assert.True(t, rl.Allow("10.0.0.1", now).Allowed)
	// per-IP bucket and global bucket are both drained
	assert.False(t, rl.Allow("10.0.0.1", now).Allowed)
	assert.False(t, rl.Allow("10.0.0.2", now).Allowed)
}

func TestRateLimiter_CleanupOldLimiters(t *testing.T) {
	rl := NewRateLimiter(config.ServerRateLimits{
		PerIPRequestsPerMinute: 60,
		BurstSize:              1,
	}, nil, createTestLogger())
	defer rl.Stop()

	start := time.Now()
	rl.Allow("10.0.0.1", start)
	rl.Allow("10.0.0.2", start.Add(DefaultLimiterTTL))

	rl.cleanupOldLimiters(start.Add(DefaultLimiterTTL + time.Minute))

	_, stale := rl.ipLimiters.Load("10.0.0.1")
	_, fresh := rl.ipLimiters.Load("10.0.0.2")
	assert.False(t, stale)
	assert.True(t, fresh)
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(config.ServerRateLimits{PerIPRequestsPerMinute: 10}, nil, createTestLogger())
	assert.NotPanics(t, func() {
		rl.Stop()
		rl.Stop()
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	collector := stats.NewCollector(createTestLogger())
	rl := NewRateLimiter(config.ServerRateLimits{
		PerIPRequestsPerMinute: 60,
		BurstSize:              1,
	}, collector, createTestLogger())
	defer rl.Stop()

	registry := router.NewRouteRegistry(createTestLogger())
	require.NoError(t, registry.RegisterProxyRoute("/google", "https://google.com", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, "google"))

	mux := http.NewServeMux()
	registry.WireUpWithMiddleware(mux, rl.CreateMiddleware())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/google", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"err":"Too Many Requests"}`, rec.Body.String())

	assert.Equal(t, int64(1), collector.GetRouteStats()["/google"].RejectedRequests)
}
