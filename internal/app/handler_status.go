package app

import (
	"net/http"
	"time"

	"github.com/thushan/relay/internal/core/ports"
	"github.com/thushan/relay/pkg/format"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
	statusIdle     = "idle"
)

type SystemSummary struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	SuccessRate   string `json:"success_rate"`
	AvgLatency    string `json:"avg_latency"`
	TotalRequests int64  `json:"total_requests"`
	TotalFailures int64  `json:"total_failures"`
	TotalRejected int64  `json:"total_rejected"`
}

type RouteResponse struct {
	Route       string `json:"route"`
	Target      string `json:"target"`
	SuccessRate string `json:"success_rate"`
	AvgLatency  string `json:"avg_latency"`
	MaxLatency  string `json:"max_latency"`
	Traffic     string `json:"traffic"`
	LastUsed    string `json:"last_used"`
	Requests    int64  `json:"requests"`
	Failures    int64  `json:"failures"`
	Rejected    int64  `json:"rejected"`
	LastStatus  int    `json:"last_status,omitempty"`
}

type StatusResponse struct {
	Timestamp time.Time       `json:"timestamp"`
	System    SystemSummary   `json:"system"`
	Routes    []RouteResponse `json:"routes"`
}

func (a *Application) statusHandler(w http.ResponseWriter, r *http.Request) {
	proxyStats := a.stats.GetProxyStats()
	routeStats := a.stats.GetRouteStats()

	response := StatusResponse{
		Timestamp: time.Now(),
		System:    a.buildSystemSummary(proxyStats),
		Routes:    make([]RouteResponse, 0, len(a.config.Proxy.Routes)),
	}

	for _, info := range a.registry.GetRoutes() {
		if !info.IsProxy {
			continue
		}
		response.Routes = append(response.Routes, buildRouteResponse(info.Path, info.Target, routeStats[info.Path]))
	}

	writeJSON(w, http.StatusOK, response)
}

func (a *Application) buildSystemSummary(proxy ports.ProxyStats) SystemSummary {
	summary := SystemSummary{
		Status:        statusIdle,
		Uptime:        format.Duration(time.Since(a.StartTime)),
		SuccessRate:   format.Percentage(0),
		AvgLatency:    format.Latency(proxy.AverageLatency),
		TotalRequests: proxy.TotalRequests,
		TotalFailures: proxy.FailedRequests,
		TotalRejected: proxy.RejectedRequests,
	}

	if proxy.TotalRequests > 0 {
		rate := float64(proxy.SuccessfulRequests) / float64(proxy.TotalRequests) * 100
		summary.SuccessRate = format.Percentage(rate)
		summary.Status = statusHealthy
		if proxy.FailedRequests > proxy.SuccessfulRequests {
			summary.Status = statusDegraded
		}
	}

	return summary
}

func buildRouteResponse(route, target string, stats ports.RouteStats) RouteResponse {
	return RouteResponse{
		Route:       route,
		Target:      target,
		Requests:    stats.TotalRequests,
		Failures:    stats.FailedRequests,
		Rejected:    stats.RejectedRequests,
		SuccessRate: format.Percentage(stats.SuccessRate),
		AvgLatency:  format.Latency(stats.AverageLatency),
		MaxLatency:  format.Latency(stats.MaxLatency),
		Traffic:     format.Bytes(stats.TotalBytes),
		LastStatus:  stats.LastStatusCode,
		LastUsed:    format.TimeAgo(stats.LastUsed),
	}
}
