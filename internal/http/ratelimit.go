package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"portfolio-backend-go/internal/metrics"

	"github.com/patrickmn/go-cache"
)

// RateLimiter is a fixed-window counter per client IP.
type RateLimiter struct {
	name    string
	window  time.Duration
	max     int
	message string
	hits    *cache.Cache
}

func NewRateLimiter(name string, window time.Duration, max int, message string) *RateLimiter {
	return &RateLimiter{
		name:    name,
		window:  window,
		max:     max,
		message: message,
		hits:    cache.New(window, 2*window),
	}
}

// Allow counts a hit for key and reports whether it is within the limit,
// the hits left and when the window resets.
func (l *RateLimiter) Allow(key string) (bool, int, time.Time) {
	count := l.hit(key)
	_, reset, _ := l.hits.GetWithExpiration(key)
	if reset.IsZero() {
		reset = time.Now().Add(l.window)
	}
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= l.max, remaining, reset
}

func (l *RateLimiter) hit(key string) int {
	for {
		if err := l.hits.Add(key, 1, l.window); err == nil {
			return 1
		}
		n, err := l.hits.IncrementInt(key, 1)
		if err == nil {
			return n
		}
		// The window expired between Add and IncrementInt.
	}
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, reset := l.Allow(clientIP(r))
		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(l.max))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(int(time.Until(reset).Round(time.Second).Seconds())))
		if !ok {
			metrics.RateLimitedTotal.WithLabelValues(l.name).Inc()
			h.Set("Retry-After", strconv.Itoa(int(time.Until(reset).Round(time.Second).Seconds())))
			WriteError(w, http.StatusTooManyRequests, l.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}
