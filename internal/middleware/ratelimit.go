// internal/middleware/ratelimit.go
package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"librarium/internal/httpjson"
)

// clientsHighWater triggers a prune of idle client entries.
const clientsHighWater = 1024

// clientIdleTTL is how long a client's limiter survives without traffic.
const clientIdleTTL = 3 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP. Each client gets its own
// token bucket; entries for idle clients are pruned once the map grows past
// the high-water mark.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    r,
		burst:   burst,
		now:     time.Now,
	}
}

// Limit rejects requests from clients that exhausted their bucket with a 429.
// Mount after the RealIP middleware so the key is the actual client address.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientKey(r)) {
			httpjson.Error(w, http.StatusTooManyRequests, "too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= clientsHighWater {
			rl.prune(now)
		}
		client = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = client
	}
	client.lastSeen = now

	return client.limiter.Allow()
}

// prune drops clients idle past the TTL. Callers hold the lock.
func (rl *RateLimiter) prune(now time.Time) {
	for key, client := range rl.clients {
		if now.Sub(client.lastSeen) > clientIdleTTL {
			delete(rl.clients, key)
		}
	}
}

// clientKey extracts the client address. RealIP rewrites RemoteAddr to a bare
// IP; direct connections carry host:port.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
