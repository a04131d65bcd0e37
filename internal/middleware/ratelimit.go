package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

type window struct {
	used  int
	reset time.Time
}

// limiter counts requests per key in fixed windows.
type limiter struct {
	mu      sync.Mutex
	limit   int
	per     time.Duration
	windows map[string]*window
	swept   time.Time
}

func newLimiter(limit int, per time.Duration, now time.Time) *limiter {
	return &limiter{limit: limit, per: per, windows: make(map[string]*window), swept: now}
}

// take consumes one request for key. When the window is exhausted it returns
// false and the time left until it resets.
func (l *limiter) take(key string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.swept) > l.per {
		for k, w := range l.windows {
			if now.After(w.reset) {
				delete(l.windows, k)
			}
		}
		l.swept = now
	}
	w := l.windows[key]
	if w == nil || now.After(w.reset) {
		w = &window{reset: now.Add(l.per)}
		l.windows[key] = w
	}
	if w.used >= l.limit {
		return false, w.reset.Sub(now)
	}
	w.used++
	return true, 0
}

// RateLimit allows limit requests per client IP in each window. Requests for
// which skip returns true are not counted.
func RateLimit(limit int, per time.Duration, skip func(*http.Request) bool) func(http.Handler) http.Handler {
	l := newLimiter(limit, per, time.Now())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || (skip != nil && skip(r)) {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := l.take(ClientIP(r), time.Now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SkipPathSuffix returns a skip predicate matching URL paths ending in any of
// the suffixes.
func SkipPathSuffix(suffixes ...string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(r.URL.Path, s) {
				return true
			}
		}
		return false
	}
}
