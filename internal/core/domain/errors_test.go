package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProxyError(t *testing.T) {
	err := NewProxyError("http://github.lokal", 1500*time.Millisecond, ErrUpstreamTimeout)

	assert.Equal(t, "proxy to http://github.lokal failed after 1500ms: upstream did not respond in time", err.Error())
	assert.ErrorIs(t, err, ErrUpstreamTimeout)

	var proxyErr *ProxyError
	wrapped := errors.Join(context.Canceled, err)
	assert.ErrorAs(t, wrapped, &proxyErr)
	assert.Equal(t, "http://github.lokal", proxyErr.TargetURL)
}

func TestRouteKind(t *testing.T) {
	assert.Equal(t, "proxy", RouteKindProxy.String())
	assert.Equal(t, "static", RouteKindStatic.String())
	assert.Equal(t, "unknown(7)", RouteKind(7).String())

	assert.True(t, Route{Path: "/google", Kind: RouteKindProxy}.IsProxy())
	assert.False(t, Route{Path: "/", Kind: RouteKindStatic}.IsProxy())
}
