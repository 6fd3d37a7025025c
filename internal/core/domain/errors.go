package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUpstreamTimeout is the cancellation cause when the forward deadline elapses
	ErrUpstreamTimeout = errors.New("upstream did not respond in time")

	// ErrShuttingDown is the cancellation cause when the process is tearing down
	ErrShuttingDown = errors.New("server is shutting down")
)

// UnknownErrorMessage is used when a failure carries no usable message
const UnknownErrorMessage = "Unknown error"

// ErrorEnvelope is the JSON body every failed proxy call receives
type ErrorEnvelope struct {
	Err string `json:"err"`
}

// ProxyError describes a single failed forwarding attempt
type ProxyError struct {
	Err       error
	TargetURL string
	Latency   time.Duration
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("proxy to %s failed after %dms: %v", e.TargetURL, e.Latency.Milliseconds(), e.Err)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

func NewProxyError(targetURL string, latency time.Duration, err error) *ProxyError {
	return &ProxyError{
		Err:       err,
		TargetURL: targetURL,
		Latency:   latency,
	}
}
