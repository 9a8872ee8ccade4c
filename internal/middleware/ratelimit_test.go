package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	now := start
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			now = now.Add(d)
			mu.Unlock()
		}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	clock, advance := fixedClock(time.Unix(1000, 0))
	rl.now = clock

	if !rl.Allow("7") || !rl.Allow("7") {
		t.Fatal("Expected first two requests to pass")
	}
	if rl.Allow("7") {
		t.Error("Expected third request to be throttled")
	}
	if !rl.Allow("8") {
		t.Error("Expected other keys to be unaffected")
	}

	advance(time.Minute + time.Second)
	if !rl.Allow("7") {
		t.Error("Expected request to pass after the window")
	}
}

func TestRateLimiterEvict(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	clock, advance := fixedClock(time.Unix(1000, 0))
	rl.now = clock

	rl.Allow("a")
	advance(30 * time.Second)
	rl.Allow("b")
	advance(45 * time.Second)

	if n := rl.Evict(); n != 1 {
		t.Errorf("Expected 1 key evicted, got %d", n)
	}
	if _, ok := rl.requests["b"]; !ok {
		t.Error("Expected active key to survive eviction")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.Allow("x") {
			t.Fatal("Disabled limiter must allow everything")
		}
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.1:5001", "10.0.0.2:5000"} {
		req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	want := []int{http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: got %d, want %d", i, codes[i], want[i])
		}
	}
}
