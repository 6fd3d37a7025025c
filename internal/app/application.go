package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thushan/relay/internal/adapter/security"
	"github.com/thushan/relay/internal/app/middleware"
	"github.com/thushan/relay/internal/config"
	"github.com/thushan/relay/internal/core/ports"
	"github.com/thushan/relay/internal/logger"
	"github.com/thushan/relay/internal/router"
	"github.com/thushan/relay/pkg/pool"
)

const DefaultStreamBufferSize = 32 * 1024

// Application is the HTTP front end: route table, listener and drain
type Application struct {
	config      *config.Config
	logger      logger.StyledLogger
	forwarder   ports.Forwarder
	stats       ports.StatsCollector
	registry    *router.RouteRegistry
	rateLimiter *security.RateLimiter
	accessLog   *slog.Logger
	server      *http.Server
	listener    net.Listener
	bufferPool  *pool.Pool[*[]byte]
	errCh       chan error
	StartTime   time.Time
}

type Option func(*Application)

// WithAccessLog sends a detailed access record per request to the log file
func WithAccessLog(base *slog.Logger) Option {
	return func(a *Application) {
		a.accessLog = base
	}
}

// New builds the route table and wires it into the server. The table is
// frozen once New returns.
func New(cfg *config.Config, logger logger.StyledLogger, forwarder ports.Forwarder, stats ports.StatsCollector, opts ...Option) (*Application, error) {
	bufferPool, err := pool.NewLitePool(func() *[]byte {
		buf := make([]byte, DefaultStreamBufferSize)
		return &buf
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer pool: %w", err)
	}

	a := &Application{
		config:     cfg,
		logger:     logger,
		forwarder:  forwarder,
		stats:      stats,
		registry:   router.NewRouteRegistry(logger),
		bufferPool: bufferPool,
		errCh:      make(chan error, 1),
		StartTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.registerRoutes(); err != nil {
		return nil, err
	}

	var proxyMiddleware []func(http.Handler) http.Handler
	if limits := cfg.Server.RateLimits; limits.Enabled() {
		a.rateLimiter = security.NewRateLimiter(limits, stats, logger)
		proxyMiddleware = append(proxyMiddleware, a.rateLimiter.CreateMiddleware())

		logger.Info("Rate limiting enabled",
			"global_limit", limits.GlobalRequestsPerMinute,
			"per_ip_limit", limits.PerIPRequestsPerMinute,
			"burst_size", limits.BurstSize,
			"trust_proxy", limits.TrustProxyHeaders)
		if limits.TrustProxyHeaders && len(limits.TrustedProxyCIDRs) > 0 {
			logger.Info("Configured Trusted Proxy CIDRS", "cidrs", strings.Join(limits.TrustedProxyCIDRs, ", "))
		}
	}

	mux := http.NewServeMux()
	a.registry.WireUpWithMiddleware(mux, proxyMiddleware...)

	a.server = &http.Server{
		Addr:         cfg.Server.GetAddress(),
		Handler:      a.buildHandler(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return a, nil
}

func (a *Application) buildHandler(mux http.Handler) http.Handler {
	handler := middleware.RecoveryMiddleware(a.logger, WriteErrorResponse)(mux)
	if a.config.Server.RequestLogging {
		handler = middleware.LoggingMiddleware(a.logger)(handler)
	}
	if a.accessLog != nil {
		handler = middleware.AccessLoggingMiddleware(a.accessLog)(handler)
	}
	return handler
}

// Start binds the listener and serves in the background. A bind failure is
// returned so the caller can exit before anything else starts.
func (a *Application) Start(ctx context.Context) error {
	configServer := a.config.Server

	a.logger.Info("Starting server...", "host", configServer.Host, "port", configServer.Port,
		"read_timeout", configServer.ReadTimeout, "write_timeout", configServer.WriteTimeout)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", a.server.Addr, err)
	}
	a.listener = listener

	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", "error", err)
			a.errCh <- err
		}
	}()

	a.logger.InfoWithStatus("Server listening on", a.URL())
	return nil
}

// Stop stops accepting connections and waits for in-flight responses until
// ctx expires, then closes whatever is left.
func (a *Application) Stop(ctx context.Context) error {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		_ = a.server.Close()
		return fmt.Errorf("server did not drain cleanly: %w", err)
	}
	a.logger.Info("Server stopped")
	return nil
}

// Errors reports a listener that failed after Start returned
func (a *Application) Errors() <-chan error {
	return a.errCh
}

// URL is the address callers should use, unspecified hosts show as localhost
func (a *Application) URL() string {
	if a.listener == nil {
		return ""
	}

	port := a.config.Server.Port
	if tcpAddr, ok := a.listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	host := a.config.Server.Host
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func (a *Application) Routes() []router.RouteInfo {
	return a.registry.GetRoutes()
}
