package proxy

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/thushan/relay/internal/core/domain"
	"github.com/thushan/relay/internal/logger"
)

func createTestLogger() logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestService(shutdownCtx context.Context, timeout time.Duration) *Service {
	return NewService(shutdownCtx, &Configuration{Timeout: timeout}, createTestLogger())
}

// hangingUpstream never answers until the client gives up or the test ends
func hangingUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	released := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-released:
		}
	}))
	t.Cleanup(upstream.Close)
	t.Cleanup(func() { close(released) })
	return upstream
}

func TestService_Forward_Success(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, DefaultUserAgent, r.UserAgent())
		w.Header().Set("X-Upstream", "yes")
		w.Header().Set("Content-Encoding", "identity")
		w.Header().Set("Content-Length", "5")
		_, _ = io.WriteString(w, "hello")
	}))
	defer upstream.Close()

	service := newTestService(context.Background(), 0)
	resp, err := service.Forward(context.Background(), upstream.URL)
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "yes", resp.Header.Get("X-Upstream"))
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Empty(t, resp.Header.Get("Content-Length"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestService_Forward_DecodesGzip(t *testing.T) {
	const payload = "compressed upstream payload"

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(payload))
		_ = gz.Close()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
		_, _ = w.Write(buf.Bytes())
	}))
	defer upstream.Close()

	service := newTestService(context.Background(), 0)
	resp, err := service.Forward(context.Background(), upstream.URL)
	require.NoError(t, err)
	defer resp.Close()

	assert.Empty(t, resp.Header.Get("Content-Encoding"))
	assert.Empty(t, resp.Header.Get("Content-Length"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestService_Forward_PassesThroughNonSuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "missing")
	}))
	defer upstream.Close()

	service := newTestService(context.Background(), 0)
	resp, err := service.Forward(context.Background(), upstream.URL)
	require.NoError(t, err)
	defer resp.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found", resp.Status)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "missing", string(body))
}

func TestService_Forward_ConnectionRefused(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	target := upstream.URL
	upstream.Close()

	service := newTestService(context.Background(), 0)
	resp, err := service.Forward(context.Background(), target)

	require.Error(t, err)
	assert.Nil(t, resp)

	var proxyErr *domain.ProxyError
	require.True(t, errors.As(err, &proxyErr))
	assert.Equal(t, target, proxyErr.TargetURL)
	assert.NotEmpty(t, err.Error())
}

func TestService_Forward_InvalidTarget(t *testing.T) {
	service := newTestService(context.Background(), 0)
	_, err := service.Forward(context.Background(), "://not-a-url")
	assert.Error(t, err)
}

func TestService_Forward_TimesOutHungUpstream(t *testing.T) {
	upstream := hangingUpstream(t)
	service := newTestService(context.Background(), DefaultTimeout)

	start := time.Now()
	_, err := service.Forward(context.Background(), upstream.URL)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	assert.GreaterOrEqual(t, elapsed, DefaultTimeout-100*time.Millisecond)
	assert.Less(t, elapsed, DefaultTimeout+time.Second)
}

func TestService_Forward_CancelledByShutdown(t *testing.T) {
	upstream := hangingUpstream(t)
	shutdownCtx, cancel := context.WithCancel(context.Background())
	service := newTestService(shutdownCtx, 5*time.Second)

	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := service.Forward(context.Background(), upstream.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrShuttingDown)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestService_Forward_AlreadyShuttingDown(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer upstream.Close()

	shutdownCtx, cancel := context.WithCancel(context.Background())
	cancel()

	service := newTestService(shutdownCtx, 0)
	_, err := service.Forward(context.Background(), upstream.URL)

	assert.ErrorIs(t, err, domain.ErrShuttingDown)
	assert.Zero(t, hits.Load())
}

func TestService_Forward_CallerGoesAway(t *testing.T) {
	upstream := hangingUpstream(t)
	service := newTestService(context.Background(), 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := service.Forward(ctx, upstream.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Forward_Concurrent(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "ok")
	}))
	defer upstream.Close()

	service := newTestService(context.Background(), 0)

	const requests = 25
	g, ctx := errgroup.WithContext(context.Background())
	for range requests {
		g.Go(func() error {
			resp, err := service.Forward(ctx, upstream.URL)
			if err != nil {
				return err
			}
			defer resp.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if string(body) != "ok" {
				return fmt.Errorf("unexpected body %q", body)
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.Equal(t, int32(requests), hits.Load())
}

func TestConfiguration_Defaults(t *testing.T) {
	cfg := &Configuration{}
	assert.Equal(t, DefaultTimeout, cfg.GetTimeout())
	assert.Equal(t, DefaultUserAgent, cfg.GetUserAgent())

	cfg = &Configuration{Timeout: time.Second, UserAgent: "custom/1.0"}
	assert.Equal(t, time.Second, cfg.GetTimeout())
	assert.Equal(t, "custom/1.0", cfg.GetUserAgent())
}
