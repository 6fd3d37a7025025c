package stats

/*
	Relay Stats Collector
	Every proxy route reports here once per forward: outcome, upstream status,
	latency and bytes streamed back. Rejections by the rate limiter are counted
	separately so they never skew the upstream success rate.

	The route table is fixed at startup, so the per-route map never grows past
	the number of configured routes and needs no cleanup.
*/

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/thushan/relay/internal/core/ports"
	"github.com/thushan/relay/internal/logger"
)

type Collector struct {
	logger logger.StyledLogger

	routes *xsync.Map[string, *routeData]

	totalRequests      *xsync.Counter
	successfulRequests *xsync.Counter
	failedRequests     *xsync.Counter
	rejectedRequests   *xsync.Counter
	totalLatency       *xsync.Counter
}

type routeData struct {
	totalRequests      *xsync.Counter
	successfulRequests *xsync.Counter
	failedRequests     *xsync.Counter
	rejectedRequests   *xsync.Counter
	totalBytes         *xsync.Counter
	totalLatency       *xsync.Counter
	route              string

	maxLatency     int64
	lastStatusCode int64
	lastUsed       int64
}

var _ ports.StatsCollector = (*Collector)(nil)

func NewCollector(logger logger.StyledLogger) *Collector {
	return &Collector{
		logger:             logger,
		routes:             xsync.NewMap[string, *routeData](),
		totalRequests:      xsync.NewCounter(),
		successfulRequests: xsync.NewCounter(),
		failedRequests:     xsync.NewCounter(),
		rejectedRequests:   xsync.NewCounter(),
		totalLatency:       xsync.NewCounter(),
	}
}

// RecordForward records one completed forward. Latency only counts towards
// the averages when the upstream answered.
func (c *Collector) RecordForward(route string, success bool, statusCode int, latency time.Duration, bytes int64) {
	latencyMs := latency.Milliseconds()
	data := c.getOrInitRoute(route)

	c.totalRequests.Inc()
	data.totalRequests.Inc()

	if success {
		c.successfulRequests.Inc()
		c.totalLatency.Add(latencyMs)
		data.successfulRequests.Inc()
		data.totalLatency.Add(latencyMs)
		data.totalBytes.Add(bytes)
		updateMax(&data.maxLatency, latencyMs)
	} else {
		c.failedRequests.Inc()
		data.failedRequests.Inc()
	}

	atomic.StoreInt64(&data.lastStatusCode, int64(statusCode))
	atomic.StoreInt64(&data.lastUsed, time.Now().UnixNano())
}

func (c *Collector) RecordRejected(route string) {
	c.rejectedRequests.Inc()
	c.getOrInitRoute(route).rejectedRequests.Inc()

	c.logger.Debug("Request rejected", "route", route)
}

func (c *Collector) GetProxyStats() ports.ProxyStats {
	successful := c.successfulRequests.Value()

	var avgLatency int64
	if successful > 0 {
		avgLatency = c.totalLatency.Value() / successful
	}

	return ports.ProxyStats{
		TotalRequests:      c.totalRequests.Value(),
		SuccessfulRequests: successful,
		FailedRequests:     c.failedRequests.Value(),
		RejectedRequests:   c.rejectedRequests.Value(),
		AverageLatency:     avgLatency,
	}
}

func (c *Collector) GetRouteStats() map[string]ports.RouteStats {
	stats := make(map[string]ports.RouteStats)

	c.routes.Range(func(route string, data *routeData) bool {
		total := data.totalRequests.Value()
		successful := data.successfulRequests.Value()

		var avgLatency int64
		if successful > 0 {
			avgLatency = data.totalLatency.Value() / successful
		}

		successRate := 0.0
		if total > 0 {
			successRate = float64(successful) / float64(total) * 100
		}

		var lastUsed time.Time
		if ts := atomic.LoadInt64(&data.lastUsed); ts > 0 {
			lastUsed = time.Unix(0, ts)
		}

		stats[route] = ports.RouteStats{
			Route:              data.route,
			TotalRequests:      total,
			SuccessfulRequests: successful,
			FailedRequests:     data.failedRequests.Value(),
			RejectedRequests:   data.rejectedRequests.Value(),
			TotalBytes:         data.totalBytes.Value(),
			AverageLatency:     avgLatency,
			MaxLatency:         atomic.LoadInt64(&data.maxLatency),
			LastStatusCode:     int(atomic.LoadInt64(&data.lastStatusCode)),
			LastUsed:           lastUsed,
			SuccessRate:        successRate,
		}
		return true
	})

	return stats
}

// SortedRouteStats returns the route stats busiest first, ties by route
func (c *Collector) SortedRouteStats() []ports.RouteStats {
	byRoute := c.GetRouteStats()
	sorted := make([]ports.RouteStats, 0, len(byRoute))
	for _, s := range byRoute {
		sorted = append(sorted, s)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].TotalRequests != sorted[j].TotalRequests {
			return sorted[i].TotalRequests > sorted[j].TotalRequests
		}
		return sorted[i].Route < sorted[j].Route
	})
	return sorted
}

func (c *Collector) getOrInitRoute(route string) *routeData {
	data, _ := c.routes.LoadOrCompute(route, func() (*routeData, bool) {
		return &routeData{
			route:              route,
			totalRequests:      xsync.NewCounter(),
			successfulRequests: xsync.NewCounter(),
			failedRequests:     xsync.NewCounter(),
			rejectedRequests:   xsync.NewCounter(),
			totalBytes:         xsync.NewCounter(),
			totalLatency:       xsync.NewCounter(),
		}, false
	})
	return data
}

func updateMax(target *int64, value int64) {
	for {
		current := atomic.LoadInt64(target)
		if value <= current {
			return
		}
		if atomic.CompareAndSwapInt64(target, current, value) {
			return
		}
	}
}
