package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client with a token bucket each.
// Clients are keyed by authenticated user id, falling back to the remote IP.
// X-Forwarded-For is only consulted when TrustProxy is set.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	log      *slog.Logger
	now      func() time.Time

	// OnReject, if set, is called for every throttled request.
	OnReject func()
	// TrustProxy keys anonymous clients by the first X-Forwarded-For hop.
	// Enable only behind a proxy that overwrites the header.
	TrustProxy bool
}

func NewRateLimiter(perMinute, burst int, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		log:      log,
		now:      time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.clientKey(r)
		if !rl.allow(key) {
			rl.log.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
			if rl.OnReject != nil {
				rl.OnReject()
			}
			if rl.rate > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(1/float64(rl.rate)))))
			}
			writeError(w, http.StatusTooManyRequests, "too many requests, slow down", "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup forgets clients idle for longer than idle and reports how many were dropped.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	n := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			n++
		}
	}
	return n
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if id, ok := UserIDFromCtx(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10)
	}
	if rl.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip, _, _ := strings.Cut(fwd, ",")
			if ip = strings.TrimSpace(ip); ip != "" {
				return "ip:" + ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
