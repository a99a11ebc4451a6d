package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestLimiter(t *testing.T, rps float64, burst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter("auth", RateLimiterConfig{
		Rate:            rateOf(rps),
		Burst:           burst,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimiter_AllowsRequestsWithinBurst(t *testing.T) {
	rl := newTestLimiter(t, 1, 5)

	calls := 0
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1:1234"))
		if w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
	if calls != 5 {
		t.Errorf("handler call count = %d, want 5", calls)
	}
}

func TestRateLimiter_Returns429WithRetryAfter(t *testing.T) {
	rl := newTestLimiter(t, 0.5, 2)

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.1:1234"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:5678"))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After is not an integer: %q", w.Header().Get("Retry-After"))
	}
	if retryAfter != 2 {
		t.Errorf("Retry-After = %d, want 2", retryAfter)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error == "" {
		t.Error("expected error message in 429 body")
	}
}

func TestRateLimiter_IsolatesClients(t *testing.T) {
	rl := newTestLimiter(t, 0.1, 1)

	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:1"))
	if w.Code != http.StatusOK {
		t.Fatalf("client A first request: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.1:2"))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want 429", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2:1"))
	if w.Code != http.StatusOK {
		t.Errorf("client B first request: status = %d, want 200", w.Code)
	}

	if got := rl.LimiterCount(); got != 2 {
		t.Errorf("LimiterCount = %d, want 2", got)
	}
}

func TestRateLimiter_CleanupRemovesIdleEntries(t *testing.T) {
	rl := newTestLimiter(t, 1, 1)
	rl.limiterFor("10.0.0.1")

	rl.cleanup(time.Now().Add(10 * time.Minute))

	if got := rl.LimiterCount(); got != 0 {
		t.Errorf("LimiterCount after cleanup = %d, want 0", got)
	}
}

func TestPerMinute(t *testing.T) {
	cfg := PerMinute(20)
	if cfg.Burst != 20 {
		t.Errorf("Burst = %d, want 20", cfg.Burst)
	}
	if got := float64(cfg.Rate) * 60; got < 19.99 || got > 20.01 {
		t.Errorf("Rate*60 = %v, want 20", got)
	}

	if PerMinute(0).Burst != 1 {
		t.Error("PerMinute(0) should clamp to 1")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.9", "192.0.2.9"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := ClientIP(req); got != tt.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.want)
		}
	}
}

func rateOf(rps float64) rate.Limit { return rate.Limit(rps) }
