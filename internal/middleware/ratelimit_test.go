package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name, forwarded, remote, want string
	}{
		{"forwarded", "203.0.113.1", "198.51.100.10:1234", "203.0.113.1"},
		{"first valid forwarded", " junk , 203.0.113.1 , 198.51.100.2 ", "198.51.100.10:1234", "203.0.113.1"},
		{"invalid forwarded", "invalid", "198.51.100.10:1234", "198.51.100.10"},
		{"no forwarded", "", "198.51.100.10:1234", "198.51.100.10"},
		{"ipv6 forwarded", "2001:db8::1", "[2001:db8::2]:443", "2001:db8::1"},
		{"ipv6 remote", "", "[2001:db8::2]:443", "2001:db8::2"},
		{"remote without port", "", "203.0.113.1", "203.0.113.1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLimiterWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newLimiter(2, time.Minute, start)

	for i := 0; i < 2; i++ {
		if ok, _ := l.take("a", start); !ok {
			t.Fatalf("request %d refused", i)
		}
	}
	ok, wait := l.take("a", start.Add(20*time.Second))
	if ok || wait != 40*time.Second {
		t.Fatalf("take = %v, %v; want refused with 40s left", ok, wait)
	}
	if ok, _ := l.take("b", start); !ok {
		t.Fatalf("other key refused")
	}
	if ok, _ := l.take("a", start.Add(61*time.Second)); !ok {
		t.Fatalf("new window refused")
	}
	if len(l.windows) != 1 {
		t.Fatalf("expired windows kept: %d", len(l.windows))
	}
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RateLimit(2, time.Minute, SkipPathSuffix("/pointer"))(ok)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "198.51.100.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do("/v1/sessions"); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := do("/v1/sessions")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	for i := 0; i < 5; i++ {
		if rec := do("/v1/sessions/abc/pointer"); rec.Code != http.StatusNoContent {
			t.Fatalf("pointer request %d limited: %d", i, rec.Code)
		}
	}
}
