package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/util"
)

const (
	DefaultPort         = 3000
	DefaultHost         = "0.0.0.0"
	DefaultProxyTimeout = 1500 * time.Millisecond
	DefaultUserAgent    = "relay"

	EnvPrefix     = "RELAY"
	EnvConfigFile = "RELAY_CONFIG_FILE"
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0, // responses are bounded by the proxy timeout instead
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestLogging:  true,
			RateLimits: ServerRateLimits{
				GlobalRequestsPerMinute: 0,
				PerIPRequestsPerMinute:  0,
				BurstSize:               20,
				TrustProxyHeaders:       false,
				TrustedProxyCIDRs:       []string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"},
			},
		},
		Proxy: ProxyConfig{
			Timeout:   DefaultProxyTimeout,
			UserAgent: DefaultUserAgent,
			Routes: []RouteConfig{
				{Path: "/google", Target: "https://google.com", Description: "Google (external)"},
				{Path: "/github", Target: "http://github.lokal", Description: "GitHub (internal)"},
				{Path: "/stripe", Target: "http://stripe.lokal", Description: "Stripe (internal)"},
			},
		},
		Engineering: EngineeringConfig{
			ShowNerdStats: false,
		},
	}
}

// Load reads config.yaml (or RELAY_CONFIG_FILE) on top of the defaults and
// applies RELAY_* environment overrides.
func Load() (*Config, error) {
	config := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	setDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if configFile := os.Getenv(EnvConfigFile); configFile != "" {
			v.SetConfigFile(configFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	// routes replace the defaults wholesale, mapstructure would merge by index
	if v.IsSet("proxy.routes") {
		config.Proxy.Routes = nil
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.Filename = v.ConfigFileUsed()

	cidrs, err := util.ParseTrustedCIDRs(config.Server.RateLimits.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxy cidrs: %w", err)
	}
	config.Server.RateLimits.TrustedProxyCIDRsParsed = cidrs

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.read_timeout", c.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", c.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", c.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.request_logging", c.Server.RequestLogging)
	v.SetDefault("server.rate_limits.global_requests_per_minute", c.Server.RateLimits.GlobalRequestsPerMinute)
	v.SetDefault("server.rate_limits.per_ip_requests_per_minute", c.Server.RateLimits.PerIPRequestsPerMinute)
	v.SetDefault("server.rate_limits.burst_size", c.Server.RateLimits.BurstSize)
	v.SetDefault("server.rate_limits.trust_proxy_headers", c.Server.RateLimits.TrustProxyHeaders)
	v.SetDefault("server.rate_limits.trusted_proxy_cidrs", c.Server.RateLimits.TrustedProxyCIDRs)
	v.SetDefault("proxy.timeout", c.Proxy.Timeout)
	v.SetDefault("proxy.user_agent", c.Proxy.UserAgent)
	v.SetDefault("engineering.show_nerdstats", c.Engineering.ShowNerdStats)
}

// Validate checks the configuration is usable before anything binds a port
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Proxy.Timeout <= 0 {
		return fmt.Errorf("proxy.timeout must be positive, got %v", c.Proxy.Timeout)
	}

	seen := make(map[string]struct{}, len(c.Proxy.Routes))
	for i, route := range c.Proxy.Routes {
		if !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("proxy.routes[%d]: path %q must start with /", i, route.Path)
		}
		if route.Path == constants.DefaultRootPath || strings.HasPrefix(route.Path, "/internal/") {
			return fmt.Errorf("proxy.routes[%d]: path %q is reserved", i, route.Path)
		}
		if _, dup := seen[route.Path]; dup {
			return fmt.Errorf("proxy.routes[%d]: duplicate path %q", i, route.Path)
		}
		seen[route.Path] = struct{}{}

		if _, err := util.ValidateUpstreamURL(route.Target); err != nil {
			return fmt.Errorf("proxy.routes[%d]: %w", i, err)
		}
	}

	return nil
}
