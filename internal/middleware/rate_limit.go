package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default rate limit per minute
	DefaultRateLimit = 100
	// DefaultBurstSize is the default burst size
	DefaultBurstSize = 10
	// CleanupInterval is the interval for cleaning up stale limiters
	CleanupInterval = 5 * time.Minute
	// LimiterTTL is the time-to-live for inactive limiters
	LimiterTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per authenticated member. Recompute and
// export requests aggregate a whole quote, so they are the ones worth bounding.
type RateLimiter struct {
	limiters          map[string]*limiterEntry
	mu                sync.Mutex
	requestsPerMinute int
	rateLimit         rate.Limit
	burstSize         int
	stopCh            chan struct{}
	stopOnce          sync.Once
	now               func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new RateLimiter with default settings
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultRateLimit, DefaultBurstSize)
}

// NewRateLimiterWithConfig creates a RateLimiter with custom configuration
func NewRateLimiterWithConfig(requestsPerMinute int, burstSize int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRateLimit
	}
	if burstSize <= 0 {
		burstSize = DefaultBurstSize
	}

	rl := &RateLimiter{
		limiters:          make(map[string]*limiterEntry),
		requestsPerMinute: requestsPerMinute,
		rateLimit:         rate.Limit(float64(requestsPerMinute) / 60.0),
		burstSize:         burstSize,
		stopCh:            make(chan struct{}),
		now:               time.Now,
	}

	go rl.cleanup()

	return rl
}

func (r *RateLimiter) entry(key string) *limiterEntry {
	e, ok := r.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.rateLimit, r.burstSize)}
		r.limiters[key] = e
	}
	e.lastSeen = r.now()
	return e
}

// Allow checks if a request from the given subject is allowed
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entry(key).limiter.Allow()
}

// GetState returns the remaining tokens and when the bucket is full again
func (r *RateLimiter) GetState(key string) (remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.limiters[key]
	if !ok {
		return r.burstSize, r.now().Add(time.Minute)
	}

	tokens := int(e.limiter.Tokens())
	if tokens < 0 {
		tokens = 0
	}

	resetDuration := time.Duration(float64(r.burstSize-tokens) / float64(r.rateLimit) * float64(time.Second))
	return tokens, r.now().Add(resetDuration)
}

// Len returns the number of tracked subjects
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// evictStale drops limiters idle for longer than LimiterTTL
func (r *RateLimiter) evictStale() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for key, e := range r.limiters {
		if now.Sub(e.lastSeen) > LimiterTTL {
			delete(r.limiters, key)
			log.Debug().Str("subject", key).Msg("Cleaned up stale rate limiter")
		}
	}
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictStale()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware limits requests per Auth0 subject. It must run after
// Authenticate; anonymous requests pass through untouched.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject := GetAuth0ID(c)
			if subject == "" {
				return next(c)
			}

			limit := strconv.Itoa(rl.requestsPerMinute)

			if !rl.Allow(subject) {
				_, resetTime := rl.GetState(subject)
				retryAfter := int(time.Until(resetTime).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}

				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn().
					Str("auth0_id", subject).
					Int32("workspace_id", GetWorkspaceID(c)).
					Int("retry_after", retryAfter).
					Msg("Rate limit exceeded")

				return rateLimitError(c, fmt.Sprintf("Too many requests. Please retry after %d seconds.", retryAfter))
			}

			remaining, resetTime := rl.GetState(subject)
			c.Response().Header().Set("X-RateLimit-Limit", limit)
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			return next(c)
		}
	}
}
