package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func limitedServer(rl *RateLimiter) http.Handler {
	return rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Close()
	h := limitedServer(rl)

	send := func() int {
		req := httptest.NewRequest("GET", "/v1/attachments/1", nil)
		req.RemoteAddr = "203.0.113.9:51000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send(); code != http.StatusOK {
			t.Fatalf("request %d within burst: status = %d, want 200", i+1, code)
		}
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("request past burst: status = %d, want 429", code)
	}
}

func TestRateLimiter_ClientsAreIsolated(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Close()
	h := limitedServer(rl)

	send := func(addr string) int {
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.9:51000"); code != http.StatusOK {
		t.Fatalf("first client: status = %d, want 200", code)
	}
	if code := send("203.0.113.9:51001"); code != http.StatusTooManyRequests {
		t.Fatalf("same IP new port: status = %d, want 429", code)
	}
	if code := send("198.51.100.4:51000"); code != http.StatusOK {
		t.Fatalf("different IP: status = %d, want 200", code)
	}
}

func TestRateLimiter_CloseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	rl.Close()
	rl.Close()
}
