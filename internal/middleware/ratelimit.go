package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/galerie/service/internal/response"
)

// clientLimiter tracks one token bucket per client IP, evicting buckets that
// have been idle for a while so the map does not grow without bound.
type clientLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientEntry
	rps      rate.Limit
	burst    int
	lastSeen time.Duration
}

type clientEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// RateLimit returns middleware allowing rps requests per second per client IP
// with a burst of 2×rps.
func RateLimit(rps float64) func(http.Handler) http.Handler {
	cl := &clientLimiter{
		clients:  make(map[string]*clientEntry),
		rps:      rate.Limit(rps),
		burst:    int(rps * 2),
		lastSeen: 3 * time.Minute,
	}
	if cl.burst < 1 {
		cl.burst = 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cl.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				response.Error(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (cl *clientLimiter) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	e, ok := cl.clients[ip]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(cl.rps, cl.burst)}
		cl.clients[ip] = e
	}
	e.seen = now

	// Opportunistic eviction of idle clients.
	for k, v := range cl.clients {
		if now.Sub(v.seen) > cl.lastSeen {
			delete(cl.clients, k)
		}
	}

	return e.limiter.Allow()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
