package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a fixed-window counter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int           // requests per window
	per     time.Duration // window size
}

type window struct {
	start time.Time
	used  int
}

// New allows max requests per client IP per window.
func New(max int, per time.Duration) *Limiter {
	return &Limiter{windows: map[string]*window{}, max: max, per: per}
}

// Allow reports whether one more request from key fits in its window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.windows[key]
	if w == nil || time.Since(w.start) > l.per {
		w = &window{start: time.Now()}
		l.windows[key] = w
	}
	if w.used >= l.max {
		return false
	}
	w.used++
	return true
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, _ := net.SplitHostPort(req.RemoteAddr)
		if !l.Allow(ip) {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}
