package config

import (
	"fmt"
	"net"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Filename    string            `yaml:"-" mapstructure:"-"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Proxy       ProxyConfig       `yaml:"proxy" mapstructure:"proxy"`
	Engineering EngineeringConfig `yaml:"engineering" mapstructure:"engineering"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string           `yaml:"host" mapstructure:"host"`
	RateLimits      ServerRateLimits `yaml:"rate_limits" mapstructure:"rate_limits"`
	Port            int              `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration    `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration    `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration    `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration    `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RequestLogging  bool             `yaml:"request_logging" mapstructure:"request_logging"`
}

// GetAddress returns the server address in host:port format
func (s *ServerConfig) GetAddress() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// ServerRateLimits defines rate limiting for proxy routes, zero disables a limit
type ServerRateLimits struct {
	TrustedProxyCIDRs       []string     `yaml:"trusted_proxy_cidrs" mapstructure:"trusted_proxy_cidrs"`
	TrustedProxyCIDRsParsed []*net.IPNet `yaml:"-" mapstructure:"-"`
	GlobalRequestsPerMinute int          `yaml:"global_requests_per_minute" mapstructure:"global_requests_per_minute"`
	PerIPRequestsPerMinute  int          `yaml:"per_ip_requests_per_minute" mapstructure:"per_ip_requests_per_minute"`
	BurstSize               int          `yaml:"burst_size" mapstructure:"burst_size"`
	TrustProxyHeaders       bool         `yaml:"trust_proxy_headers" mapstructure:"trust_proxy_headers"`
}

func (r ServerRateLimits) Enabled() bool {
	return r.GlobalRequestsPerMinute > 0 || r.PerIPRequestsPerMinute > 0
}

// ProxyConfig holds forwarding configuration
type ProxyConfig struct {
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
	Routes    []RouteConfig `yaml:"routes" mapstructure:"routes"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RouteConfig maps an inbound path onto a fixed upstream URL
type RouteConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Target      string `yaml:"target" mapstructure:"target"`
	Description string `yaml:"description" mapstructure:"description"`
}

// EngineeringConfig holds development/debugging configuration
type EngineeringConfig struct {
	ShowNerdStats bool `yaml:"show_nerdstats" mapstructure:"show_nerdstats"`
}
