package middleware

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a per-IP token bucket. One bucket per caller IP, refilled
// continuously at rate tokens per second up to burst.
type RateLimiter struct {
	mu    sync.Mutex
	seen  map[string]*bucket
	rate  float64
	burst float64
}

type bucket struct {
	tokens  float64
	touched time.Time
}

// staleAfter is how long an idle bucket survives before eviction. Eviction is
// lazy: it runs inline when the map grows, there is no background goroutine.
const staleAfter = 10 * time.Minute

// NewRateLimiter builds a limiter allowing rate requests/sec per IP with the
// given burst.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		seen:  make(map[string]*bucket),
		rate:  rate,
		burst: float64(burst),
	}
}

// Allow reports whether a request from ip fits within the limit, consuming a
// token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.seen[ip]
	if !ok {
		if len(rl.seen) > 1024 {
			rl.evictStale(now)
		}
		b = &bucket{tokens: rl.burst, touched: now}
		rl.seen[ip] = b
	} else {
		b.tokens += now.Sub(b.touched).Seconds() * rl.rate
		if b.tokens > rl.burst {
			b.tokens = rl.burst
		}
		b.touched = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictStale drops buckets idle for longer than staleAfter. Caller holds mu.
func (rl *RateLimiter) evictStale(now time.Time) {
	cutoff := now.Add(-staleAfter)
	for ip, b := range rl.seen {
		if b.touched.Before(cutoff) {
			delete(rl.seen, ip)
		}
	}
}

// RateLimit rejects requests above the configured per-IP rate with a 429 and
// the usual JSON error envelope.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// RealIP middleware rewrites RemoteAddr behind a proxy, but the
			// header is also honored directly for handlers mounted bare.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.Allow(ip) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok":    false,
					"error": "rate_limited",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
