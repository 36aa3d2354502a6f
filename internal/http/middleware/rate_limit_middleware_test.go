package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, RateLimitPolicy) (Decision, error) {
	return Decision{}, errors.New("backend down")
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/login", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimiterDeniesAfterLimitPerClient(t *testing.T) {
	h := NewRateLimiter(2, time.Minute).Middleware()(okHandler())

	for i := 0; i < 2; i++ {
		if rr := hit(h, "10.0.0.1:1000"); rr.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, rr.Code)
		}
	}
	rr := hit(h, "10.0.0.1:2000")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
	if rr := hit(h, "10.0.0.2:1000"); rr.Code != http.StatusNoContent {
		t.Fatalf("other client must have its own budget, got %d", rr.Code)
	}
}

func TestLocalFixedWindowLimiterResetsAfterWindow(t *testing.T) {
	l := NewLocalFixedWindowLimiter().(*localFixedWindowLimiter)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	policy := RateLimitPolicy{Limit: 1, Window: time.Minute}

	if d, _ := l.Allow(context.Background(), "k", policy); !d.Allowed {
		t.Fatal("first hit must be allowed")
	}
	if d, _ := l.Allow(context.Background(), "k", policy); d.Allowed {
		t.Fatal("second hit must be denied")
	}
	now = now.Add(time.Minute)
	if d, _ := l.Allow(context.Background(), "k", policy); !d.Allowed {
		t.Fatal("hit in a new window must be allowed")
	}
}

func TestRateLimiterFailureModes(t *testing.T) {
	closed := NewDistributedRateLimiter(failingLimiter{}, 5, time.Minute, FailClosed, "auth").Middleware()(okHandler())
	if rr := hit(closed, "10.0.0.1:1"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("fail closed: expected 429, got %d", rr.Code)
	}
	open := NewDistributedRateLimiter(failingLimiter{}, 5, time.Minute, FailOpen, "api").Middleware()(okHandler())
	if rr := hit(open, "10.0.0.1:1"); rr.Code != http.StatusNoContent {
		t.Fatalf("fail open: expected 204, got %d", rr.Code)
	}
}

func TestRedisFixedWindowLimiter(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisFixedWindowLimiter(client, "test_rl")
	policy := RateLimitPolicy{Limit: 2, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "auth:10.0.0.1", policy)
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d: allowed=%v err=%v", i, d.Allowed, err)
		}
	}
	d, err := limiter.Allow(ctx, "auth:10.0.0.1", policy)
	if err != nil || d.Allowed {
		t.Fatalf("third hit must be denied, allowed=%v err=%v", d.Allowed, err)
	}
	if d.RetryAfter <= 0 || d.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry after %v", d.RetryAfter)
	}
	if !server.Exists("test_rl:auth:10.0.0.1") {
		t.Fatal("expected counter key in redis")
	}
	if ttl := server.TTL("test_rl:auth:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected counter key to expire within the window, ttl=%v", ttl)
	}

	server.FastForward(time.Minute + time.Second)
	d, err = limiter.Allow(ctx, "auth:10.0.0.1", policy)
	if err != nil || !d.Allowed {
		t.Fatalf("window must reset, allowed=%v err=%v", d.Allowed, err)
	}
}

func TestRedisFixedWindowLimiterDoesNotExtendWindow(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisFixedWindowLimiter(client, "test_rl")
	policy := RateLimitPolicy{Limit: 10, Window: time.Minute}
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "api:10.0.0.2", policy); err != nil {
		t.Fatalf("first hit: %v", err)
	}
	server.FastForward(40 * time.Second)
	if _, err := limiter.Allow(ctx, "api:10.0.0.2", policy); err != nil {
		t.Fatalf("second hit: %v", err)
	}
	if ttl := server.TTL("test_rl:api:10.0.0.2"); ttl <= 0 || ttl > 20*time.Second {
		t.Fatalf("later hits must not extend the window, ttl=%v", ttl)
	}
}

func TestRedisFixedWindowLimiterBackendDown(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	h := NewDistributedRateLimiter(NewRedisFixedWindowLimiter(client, ""), 5, time.Minute, FailClosed, "auth").Middleware()(okHandler())
	if rr := hit(h, "10.0.0.1:1"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected fail closed 429, got %d", rr.Code)
	}
}
