package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	// First 5 requests should be allowed (burst)
	for i := 0; i < 5; i++ {
		if !rl.Allow("auth0|estimator") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 6th request should be rate limited (exceeded burst)
	if rl.Allow("auth0|estimator") {
		t.Error("Request 6 should be rate limited")
	}
}

func TestRateLimiter_DifferentSubjects(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("auth0|a") {
			t.Errorf("Subject a request %d should be allowed", i+1)
		}
	}
	if rl.Allow("auth0|a") {
		t.Error("Subject a should be rate limited")
	}

	// Subject b still has its full burst
	for i := 0; i < 3; i++ {
		if !rl.Allow("auth0|b") {
			t.Errorf("Subject b request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_InvalidConfigFallsBackToDefaults(t *testing.T) {
	rl := NewRateLimiterWithConfig(0, -1)
	defer rl.Stop()

	if rl.requestsPerMinute != DefaultRateLimit {
		t.Errorf("Expected %d requests per minute, got %d", DefaultRateLimit, rl.requestsPerMinute)
	}
	if rl.burstSize != DefaultBurstSize {
		t.Errorf("Expected burst %d, got %d", DefaultBurstSize, rl.burstSize)
	}
}

func TestRateLimiter_EvictStale(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	now := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("auth0|idle")
	now = now.Add(LimiterTTL / 2)
	rl.Allow("auth0|active")

	now = now.Add(LimiterTTL/2 + time.Second)
	rl.evictStale()

	if rl.Len() != 1 {
		t.Fatalf("Expected 1 limiter after eviction, got %d", rl.Len())
	}
	if remaining, _ := rl.GetState("auth0|idle"); remaining != 2 {
		t.Errorf("Expected evicted subject to start with a full burst, got %d", remaining)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter()
	rl.Stop()
	rl.Stop()
}

func requestAs(e *echo.Echo, subject string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/1/recompute", nil)
	if subject != "" {
		ctx := context.WithValue(req.Context(), Auth0IDKey, subject)
		ctx = context.WithValue(ctx, WorkspaceIDKey, int32(1))
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimitMiddleware_SkipsAnonymous(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 5; i++ {
		c, rec := requestAs(e, "")
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_LimitsSubject(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}

	for i := 0; i < 2; i++ {
		c, rec := requestAs(e, "auth0|estimator")
		if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
			t.Fatalf("Request %d: expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	c, rec := requestAs(e, "auth0|estimator")
	if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	// Another member of the same workspace is not affected
	c, rec = requestAs(e, "auth0|designer")
	if err := RateLimitMiddleware(rl)(handler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for another subject, got %d", rec.Code)
	}
}
