package constants

const (
	HeaderRequestID       = "X-Relay-Request-ID"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderRetryAfter      = "Retry-After"
	HeaderUserAgent       = "User-Agent"
)
