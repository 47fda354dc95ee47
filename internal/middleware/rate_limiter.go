package middleware

import (
	"context"
	"sync"
	"time"

	"expense-ledger/internal/errors"
	"expense-ledger/internal/handlers"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	visitorCleanupInterval = time.Minute
	visitorIdleTimeout     = 3 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP
type IPRateLimiter struct {
	mu                sync.Mutex
	visitors          map[string]*visitor
	requestsPerSecond int
	burstSize         int
}

// NewIPRateLimiter creates a limiter allowing rps requests per second with
// bursts of up to burst requests for every client IP
func NewIPRateLimiter(rps, burst int) *IPRateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst < rps {
		burst = rps
	}
	return &IPRateLimiter{
		visitors:          make(map[string]*visitor),
		requestsPerSecond: rps,
		burstSize:         burst,
	}
}

// Middleware rejects requests over the limit with SYSTEM_006
func (l *IPRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.getVisitor(c.RealIP()).Allow() {
				return handlers.SendError(c, errors.SystemRateLimitExceeded)
			}
			return next(c)
		}
	}
}

// RunCleanup forgets idle visitors until ctx is done
func (l *IPRateLimiter) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup(time.Now())
		}
	}
}

// RateLimiterWithConfig creates a rate limiter middleware with custom configuration.
// Idle visitors are forgotten until ctx is done.
func RateLimiterWithConfig(ctx context.Context, rps int, burst int) echo.MiddlewareFunc {
	limiter := NewIPRateLimiter(rps, burst)
	go limiter.RunCleanup(ctx)
	return limiter.Middleware()
}

func (l *IPRateLimiter) getVisitor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rate.Limit(l.requestsPerSecond), l.burstSize)
		l.visitors[ip] = &visitor{limiter, time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (l *IPRateLimiter) cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTimeout {
			delete(l.visitors, ip)
		}
	}
}

func (l *IPRateLimiter) visitorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
