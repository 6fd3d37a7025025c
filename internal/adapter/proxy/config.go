package proxy

import "time"

const (
	DefaultTimeout   = 1500 * time.Millisecond
	DefaultUserAgent = "relay"

	DefaultSetNoDelay         = true
	DefaultDisableCompression = false

	DefaultConnectionTimeout = 30 * time.Second
	DefaultKeepAlive         = 60 * time.Second

	DefaultMaxIdleConns        = 20
	DefaultMaxIdleConnsPerHost = 5

	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second
)

// Configuration holds forwarder settings, zero values fall back to defaults
type Configuration struct {
	UserAgent           string
	Timeout             time.Duration
	ConnectionTimeout   time.Duration
	ConnectionKeepAlive time.Duration
}

// GetTimeout is the whole-operation deadline, from issuing the request to the
// last body byte.
func (c *Configuration) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Configuration) GetUserAgent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}

func (c *Configuration) GetConnectionTimeout() time.Duration {
	if c.ConnectionTimeout == 0 {
		return DefaultConnectionTimeout
	}
	return c.ConnectionTimeout
}

func (c *Configuration) GetConnectionKeepAlive() time.Duration {
	if c.ConnectionKeepAlive == 0 {
		return DefaultKeepAlive
	}
	return c.ConnectionKeepAlive
}
