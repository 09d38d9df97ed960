// internal/middleware/ratelimit_test.go
package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/books", nil)
	req.RemoteAddr = addr
	return req
}

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Minute), 3)
	srv := rl.Limit(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i+1)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterKeysByClientIP(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Minute), 1)
	srv := rl.Limit(okHandler())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, requestFrom("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Exhausted for the first client, regardless of source port.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, requestFrom("10.0.0.1:6000"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client has its own bucket.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, requestFrom("10.0.0.2:5000"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterHandlesBareIPAddresses(t *testing.T) {
	// RealIP rewrites RemoteAddr to a bare IP without a port.
	rl := NewRateLimiter(rate.Every(time.Minute), 1)
	srv := rl.Limit(okHandler())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, requestFrom("203.0.113.9"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, requestFrom("203.0.113.9"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterPrunesIdleClients(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Minute), 1)

	current := time.Now()
	rl.now = func() time.Time { return current }

	for i := 0; i < clientsHighWater; i++ {
		rl.allow(fmt.Sprintf("client-%d", i))
	}
	assert.Len(t, rl.clients, clientsHighWater)

	// All entries are now idle past the TTL; the next new client prunes them.
	current = current.Add(clientIdleTTL + time.Second)
	assert.True(t, rl.allow("fresh-client"))
	assert.Len(t, rl.clients, 1)
}
