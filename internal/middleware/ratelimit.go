package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ============================================================================
// In-memory token bucket
// ============================================================================

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// MemoryLimiter is a per-process token bucket limiter.
type MemoryLimiter struct {
	rate  float64
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket
}

// NewMemoryLimiter allows burst requests at once, refilled at rate per second.
func NewMemoryLimiter(rate float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{
		rate:    rate,
		burst:   burst,
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burst), lastRefill: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastRefill = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--
	return true, nil
}

// Prune drops buckets that have refilled completely.
func (l *MemoryLimiter) Prune() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		if b.tokens+now.Sub(b.lastRefill).Seconds()*l.rate >= float64(l.burst) {
			delete(l.buckets, key)
		}
	}
}

// ============================================================================
// Redis fixed window
// ============================================================================

// RedisLimiter counts requests per key in fixed windows shared by every
// instance of the shop.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisLimiter allows limit requests per window.
func NewRedisLimiter(client redis.Cmdable, prefix string, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		now:    time.Now,
	}
}

func (l *RedisLimiter) windowKey(key string) string {
	slot := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("ratelimit:%s:%s:%s", l.prefix, key, strconv.FormatInt(slot, 10))
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.windowKey(key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= l.limit, nil
}

// ============================================================================
// Middleware
// ============================================================================

// RateLimit rejects requests over the limiter's budget with 429. Requests are
// keyed by client IP. Limiter failures let the request through.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := limiter.Allow(r.Context(), GetClientIP(r))
			if err != nil {
				GetLogger(r.Context()).Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				w.Header().Set("Retry-After", "1")
				respondTooManyRequests(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address. Only trust these headers behind a proxy.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
