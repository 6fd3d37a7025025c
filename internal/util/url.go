package util

import (
	"fmt"
	"net/url"
)

// ValidateUpstreamURL checks that raw is an absolute http(s) URL with a host,
// which is all the forwarder needs to issue a request against it.
func ValidateUpstreamURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("upstream url is empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", raw, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("upstream url %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("upstream url %q has no host", raw)
	}

	return parsed, nil
}
