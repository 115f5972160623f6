package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"healthmonitor/internal/web"
)

const (
	DefaultRateWindow     = time.Minute
	DefaultMaxRequests    = 60
	defaultPruneThreshold = 10000
	pruneGrace            = 5 * time.Minute
)

// RateLimiter enforces a fixed-window request cap per client key.
// Bursts straddling a window boundary are an accepted tradeoff of the
// fixed-window algorithm.
type RateLimiter struct {
	window         time.Duration
	maxRequests    int
	pruneThreshold int
	now            Clock

	mu      sync.Mutex
	clients map[string]*rateWindow
}

type rateWindow struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
}

func NewRateLimiter(maxRequests int, window time.Duration, now Clock) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	if now == nil {
		now = SystemClock
	}

	return &RateLimiter{
		window:         window,
		maxRequests:    maxRequests,
		pruneThreshold: defaultPruneThreshold,
		now:            now,
		clients:        make(map[string]*rateWindow),
	}
}

// Allow counts one request against the client's current window and
// reports whether it may proceed; when rejected, retryAfter is the
// whole seconds until the window resets, clamped to >= 0.
func (l *RateLimiter) Allow(clientKey string) (bool, int) {
	now := l.now()

	l.mu.Lock()
	w, ok := l.clients[clientKey]
	if !ok {
		w = &rateWindow{windowStart: now}
		l.clients[clientKey] = w
	}
	if len(l.clients) > l.pruneThreshold {
		l.prune(now)
	}
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	elapsed := now.Sub(w.windowStart)
	if elapsed >= l.window {
		w.windowStart = now
		w.count = 0
		elapsed = 0
	}

	w.count++
	if w.count > l.maxRequests {
		retryAfter := int(l.window.Seconds()) - int(elapsed.Seconds())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return false, retryAfter
	}

	return true, 0
}

// prune drops clients whose window went stale; called with l.mu held.
// Opportunistic bookkeeping only: correctness never depends on it.
func (l *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-(l.window + pruneGrace))
	for key, w := range l.clients {
		w.mu.Lock()
		stale := w.windowStart.Before(cutoff)
		w.mu.Unlock()
		if stale {
			delete(l.clients, key)
		}
	}
}

// Middleware rejects over-limit clients before the request reaches any
// other component. Unauthenticated traffic is keyed by client address.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.Allow(clientIP(r))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			web.RespondJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":      "Too many requests",
				"message":    fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter),
				"retryAfter": retryAfter,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	xForwardedFor := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xForwardedFor != "" {
		parts := strings.Split(xForwardedFor, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "unknown"
}
