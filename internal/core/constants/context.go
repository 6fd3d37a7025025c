package constants

const (
	ContextRequestIdKey = "request_id" // log attribute carrying the per-request ID
)
