package ports

import "time"

type StatsCollector interface {
	RecordForward(route string, success bool, statusCode int, latency time.Duration, bytes int64)
	RecordRejected(route string)

	GetProxyStats() ProxyStats
	GetRouteStats() map[string]RouteStats
}

type ProxyStats struct {
	TotalRequests      int64 `json:"total_requests"`
	SuccessfulRequests int64 `json:"successful_requests"`
	FailedRequests     int64 `json:"failed_requests"`
	RejectedRequests   int64 `json:"rejected_requests"`
	AverageLatency     int64 `json:"avg_latency_ms"`
}

type RouteStats struct {
	Route              string    `json:"route"`
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	RejectedRequests   int64     `json:"rejected_requests"`
	TotalBytes         int64     `json:"total_bytes"`
	AverageLatency     int64     `json:"avg_latency_ms"`
	MaxLatency         int64     `json:"max_latency_ms"`
	LastStatusCode     int       `json:"last_status_code"`
	LastUsed           time.Time `json:"last_used"`
	SuccessRate        float64   `json:"success_rate_percent"`
}
