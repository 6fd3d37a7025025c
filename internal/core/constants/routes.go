package constants

const (
	DefaultHealthCheckEndpoint = "/internal/health"
	DefaultStatusEndpoint      = "/internal/status"
	DefaultVersionEndpoint     = "/version"
	DefaultRootPath            = "/"
)
