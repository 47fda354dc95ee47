package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func serveFrom(e *echo.Echo, handler echo.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/expenses/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec
}

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	handler := NewIPRateLimiter(5, 10).Middleware()(okHandler)

	for i := 0; i < 10; i++ {
		rec := serveFrom(e, handler, "192.168.1.100:12345")
		assert.Equal(t, http.StatusOK, rec.Code, "request %d within the burst should succeed", i)
	}

	rateLimited := false
	for i := 0; i < 20; i++ {
		rec := serveFrom(e, handler, "192.168.1.100:12345")
		// Rate limiter uses SendError which sends response and returns nil
		if rec.Code == http.StatusTooManyRequests {
			assert.Contains(t, rec.Body.String(), "SYSTEM_006")
			rateLimited = true
			break
		}
	}

	assert.True(t, rateLimited, "Should be rate limited after many requests")
}

func TestRateLimiterWithConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := echo.New()
	handler := RateLimiterWithConfig(ctx, 2, 4)(okHandler)

	for i := 0; i < 4; i++ {
		rec := serveFrom(e, handler, "192.168.1.2:12345")
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serveFrom(e, handler, "192.168.1.2:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewIPRateLimiter_NormalizesLimits(t *testing.T) {
	limiter := NewIPRateLimiter(0, 0)
	assert.Equal(t, 1, limiter.requestsPerSecond)
	assert.Equal(t, 1, limiter.burstSize)

	limiter = NewIPRateLimiter(20, 5)
	assert.Equal(t, 20, limiter.burstSize)
}

func TestRateLimiterDifferentIPs(t *testing.T) {
	e := echo.New()
	handler := NewIPRateLimiter(5, 5).Middleware()(okHandler)

	ips := []string{"192.168.1.1:1234", "192.168.1.2:1234", "192.168.1.3:1234"}
	for _, ip := range ips {
		for i := 0; i < 5; i++ {
			rec := serveFrom(e, handler, ip)
			assert.Equal(t, http.StatusOK, rec.Code, "Request %d for IP %s should succeed", i, ip)
		}
	}
}

func TestRateLimiter_ClientIPBehindTrustedProxy(t *testing.T) {
	e := echo.New()
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	handler := NewIPRateLimiter(1, 1).Middleware()(okHandler)

	serve := func(remoteAddr, forwardedFor string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/expenses/", nil)
		req.RemoteAddr = remoteAddr
		req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
		rec := httptest.NewRecorder()
		_ = handler(e.NewContext(req, rec))
		return rec.Code
	}

	// a directly connected client cannot pick a new bucket by rewriting the header
	assert.Equal(t, http.StatusOK, serve("203.0.113.7:5000", "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("203.0.113.7:5000", "198.51.100.2"))

	// behind a private-network proxy each forwarded client has its own bucket
	assert.Equal(t, http.StatusOK, serve("10.0.0.5:5000", "198.51.100.10"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.5:5000", "198.51.100.11"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.5:5000", "198.51.100.11"))
}

func TestVisitorCleanup(t *testing.T) {
	limiter := NewIPRateLimiter(5, 10)
	limiter.getVisitor("old_ip")
	limiter.getVisitor("new_ip")

	limiter.mu.Lock()
	limiter.visitors["old_ip"].lastSeen = time.Now().Add(-5 * time.Minute)
	limiter.mu.Unlock()

	limiter.cleanup(time.Now())

	assert.Equal(t, 1, limiter.visitorCount(), "Old visitor should be removed")

	limiter.mu.Lock()
	_, oldExists := limiter.visitors["old_ip"]
	_, newExists := limiter.visitors["new_ip"]
	limiter.mu.Unlock()

	assert.False(t, oldExists, "Old visitor should not exist")
	assert.True(t, newExists, "New visitor should still exist")
}

func TestRunCleanup_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		NewIPRateLimiter(1, 1).RunCleanup(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup loop did not stop after cancellation")
	}
}

func TestRateLimiterConcurrency(t *testing.T) {
	e := echo.New()
	handler := NewIPRateLimiter(5, 10).Middleware()(okHandler)

	var wg sync.WaitGroup
	successCount := 0
	rateLimitCount := 0
	var mu sync.Mutex

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			rec := serveFrom(e, handler, "192.168.1.100:12345")

			mu.Lock()
			switch rec.Code {
			case http.StatusOK:
				successCount++
			case http.StatusTooManyRequests:
				rateLimitCount++
			}
			mu.Unlock()
		}()
	}

	wg.Wait()

	assert.Greater(t, successCount, 0, "Some requests should succeed")
	assert.Greater(t, rateLimitCount, 0, "Some requests should be rate limited")
	assert.Equal(t, 20, successCount+rateLimitCount, "All requests should be accounted for")
}
