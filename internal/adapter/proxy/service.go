package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/core/domain"
	"github.com/thushan/relay/internal/core/ports"
	"github.com/thushan/relay/internal/logger"
)

// Service forwards a single GET to a fixed upstream. Every call gets its own
// cancellation token which fires on the first of: the deadline, the caller
// going away or the process shutting down.
type Service struct {
	shutdownCtx   context.Context
	client        *http.Client
	configuration *Configuration
	logger        logger.StyledLogger
}

var _ ports.Forwarder = (*Service)(nil)

// NewService creates the forwarder. shutdownCtx is cancelled when teardown
// begins, which aborts every operation still in flight.
func NewService(shutdownCtx context.Context, configuration *Configuration, logger logger.StyledLogger) *Service {
	if configuration == nil {
		configuration = &Configuration{}
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  DefaultDisableCompression,
		TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		ForceAttemptHTTP2:   true,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{
				Timeout:   configuration.GetConnectionTimeout(),
				KeepAlive: configuration.GetConnectionKeepAlive(),
			}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				if terr := tcpConn.SetNoDelay(DefaultSetNoDelay); terr != nil {
					logger.Warn("failed to set NoDelay", "err", terr)
				}
			}
			return conn, nil
		},
	}

	return &Service{
		shutdownCtx:   shutdownCtx,
		client:        &http.Client{Transport: transport},
		configuration: configuration,
		logger:        logger,
	}
}

// Forward issues GET targetURL. On success the caller owns the response and
// must Close it, the body is still bound by the operation deadline while it is
// being streamed.
func (s *Service) Forward(ctx context.Context, targetURL string) (*ports.ProxyResponse, error) {
	start := time.Now()
	opCtx, release := s.newOperation(ctx)

	s.logger.InfoWithUpstream("Proxying", targetURL)

	resp, err := s.fetch(opCtx, targetURL)
	if err == nil && opCtx.Err() != nil {
		// cancellation always wins over an answer that arrived too late
		resp.Body.Close()
		err = context.Cause(opCtx)
	}
	if err != nil {
		release()
		if cause := context.Cause(opCtx); cause != nil && !errors.Is(err, cause) {
			err = cause
		}
		proxyErr := domain.NewProxyError(targetURL, time.Since(start), err)
		s.logger.ErrorWithUpstream("Failed to proxy", targetURL,
			"error", err,
			"latency_ms", proxyErr.Latency.Milliseconds())
		return nil, proxyErr
	}

	s.logger.Debug("Upstream responded",
		"target", targetURL,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds())

	return ports.NewProxyResponse(
		resp.StatusCode,
		statusText(resp),
		sanitiseHeaders(resp.Header),
		resp.Body,
		release,
	), nil
}

// newOperation derives the per-call token. The deadline and the shutdown
// trigger cancel the same context, release stops both.
func (s *Service) newOperation(parent context.Context) (context.Context, func()) {
	shutdownable, cancelShutdown := context.WithCancelCause(parent)
	opCtx, cancelTimeout := context.WithTimeoutCause(shutdownable, s.configuration.GetTimeout(), domain.ErrUpstreamTimeout)

	stop := func() bool { return false }
	if s.shutdownCtx != nil {
		if s.shutdownCtx.Err() != nil {
			cancelShutdown(domain.ErrShuttingDown)
		}
		stop = context.AfterFunc(s.shutdownCtx, func() {
			cancelShutdown(domain.ErrShuttingDown)
		})
	}

	return opCtx, func() {
		stop()
		cancelTimeout()
		cancelShutdown(nil)
	}
}

func (s *Service) fetch(ctx context.Context, targetURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.HeaderUserAgent, s.configuration.GetUserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := decodeBody(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// statusText returns the reason phrase the upstream sent, e.g. "Not Found"
func statusText(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)); ok {
		if text = strings.TrimSpace(text); text != "" {
			return text
		}
	}
	return http.StatusText(resp.StatusCode)
}
