package security

/*
				Relay Security Adapter - Rate Limiter
	RateLimiter enforces optional global and per-IP limits on the proxy routes
	using token buckets. Both limits are off unless configured. Rejected calls
	get a 429 with the same {"err": ...} envelope every other failure uses and
	are reported to the stats collector against the route they hit.

	References:
	- https://pkg.go.dev/golang.org/x/time/rate
*/

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/thushan/relay/internal/config"
	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/core/domain"
	"github.com/thushan/relay/internal/core/ports"
	"github.com/thushan/relay/internal/logger"
	"github.com/thushan/relay/internal/router"
	"github.com/thushan/relay/internal/util"
)

const (
	DefaultCleanupInterval = 5 * time.Minute
	DefaultLimiterTTL      = 10 * time.Minute

	RejectionMessage = "Too Many Requests"
)

type RateLimiter struct {
	stats  ports.StatsCollector
	logger logger.StyledLogger

	globalLimiter *rate.Limiter
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	ipLimiters    sync.Map // map[string]*ipLimiter
	trustedCIDRs  []*net.IPNet

	perIPRequestsPerMinute int
	burstSize              int
	stopOnce               sync.Once
	trustProxyHeaders      bool
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess atomicTime
}

// Decision is the outcome of a single Allow check
type Decision struct {
	RetryAfter int
	Allowed    bool
}

func NewRateLimiter(limits config.ServerRateLimits, stats ports.StatsCollector, logger logger.StyledLogger) *RateLimiter {
	burst := limits.BurstSize
	if burst <= 0 {
		burst = 1
	}

	rl := &RateLimiter{
		perIPRequestsPerMinute: limits.PerIPRequestsPerMinute,
		burstSize:              burst,
		trustProxyHeaders:      limits.TrustProxyHeaders,
		trustedCIDRs:           limits.TrustedProxyCIDRsParsed,
		stats:                  stats,
		logger:                 logger,
		stopCleanup:            make(chan struct{}),
	}

	if limits.GlobalRequestsPerMinute > 0 {
		rl.globalLimiter = rate.NewLimiter(perMinute(limits.GlobalRequestsPerMinute), burst)
	}

	if limits.PerIPRequestsPerMinute > 0 {
		rl.cleanupTicker = time.NewTicker(DefaultCleanupInterval)
		go rl.cleanupRoutine()
	}

	return rl
}

func perMinute(requests int) rate.Limit {
	return rate.Limit(float64(requests) / 60.0)
}

// Allow consumes a token from the global bucket and then the client's bucket.
// A request rejected by the per-IP bucket gives its global token back.
func (rl *RateLimiter) Allow(clientIP string, now time.Time) Decision {
	var global *rate.Reservation
	if rl.globalLimiter != nil {
		global = rl.globalLimiter.ReserveN(now, 1)
		if delay := global.DelayFrom(now); !global.OK() || delay > 0 {
			global.CancelAt(now)
			return Decision{Allowed: false, RetryAfter: retryAfterSeconds(delay)}
		}
	}

	if rl.perIPRequestsPerMinute <= 0 {
		return Decision{Allowed: true}
	}

	info := rl.getOrCreateLimiter(clientIP, now)
	reservation := info.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); !reservation.OK() || delay > 0 {
		reservation.CancelAt(now)
		if global != nil {
			global.CancelAt(now)
		}
		return Decision{Allowed: false, RetryAfter: retryAfterSeconds(delay)}
	}

	return Decision{Allowed: true}
}

func retryAfterSeconds(delay time.Duration) int {
	seconds := int(delay.Seconds()) + 1
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (rl *RateLimiter) getOrCreateLimiter(key string, now time.Time) *ipLimiter {
	if existing, ok := rl.ipLimiters.Load(key); ok {
		if info, ok := existing.(*ipLimiter); ok {
			info.lastAccess.Store(now)
			return info
		}
	}

	newLimiter := &ipLimiter{
		limiter: rate.NewLimiter(perMinute(rl.perIPRequestsPerMinute), rl.burstSize),
	}
	newLimiter.lastAccess.Store(now)

	actual, _ := rl.ipLimiters.LoadOrStore(key, newLimiter)
	if info, ok := actual.(*ipLimiter); ok {
		info.lastAccess.Store(now)
		return info
	}
	return newLimiter
}

func (rl *RateLimiter) cleanupRoutine() {
	for {
		select {
		case <-rl.stopCleanup:
			return
		case now := <-rl.cleanupTicker.C:
			rl.cleanupOldLimiters(now)
		}
	}
}

// cleanupOldLimiters drops per-IP buckets that have been idle for the TTL
func (rl *RateLimiter) cleanupOldLimiters(now time.Time) {
	cutoff := now.Add(-DefaultLimiterTTL)

	rl.ipLimiters.Range(func(key, value any) bool {
		info, ok := value.(*ipLimiter)
		if !ok || info.lastAccess.Load().Before(cutoff) {
			rl.ipLimiters.Delete(key)
		}
		return true
	})
}

// Stop halts the cleanup goroutine, safe to call more than once
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		if rl.cleanupTicker != nil {
			rl.cleanupTicker.Stop()
		}
		close(rl.stopCleanup)
	})
}

func (rl *RateLimiter) CreateMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := util.GetClientIP(r, rl.trustProxyHeaders, rl.trustedCIDRs)

			decision := rl.Allow(clientIP, time.Now())
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			route, ok := router.RoutePathFromContext(r.Context())
			if !ok {
				route = r.URL.Path
			}
			if rl.stats != nil {
				rl.stats.RecordRejected(route)
			}

			rl.logger.Warn("Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"route", route,
				"retry_after", decision.RetryAfter)

			writeRejection(w, decision.RetryAfter)
		})
	}
}

func writeRejection(w http.ResponseWriter, retryAfter int) {
	w.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusTooManyRequests)
	_ = jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w).Encode(domain.ErrorEnvelope{Err: RejectionMessage})
}
