package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/teamx/teamfinder/internal/httpx"
)

// RateLimiter decides whether another request for key fits in the window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// MemoryRateLimiter tracks request timestamps per key in process memory.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewMemoryRateLimiter creates a limiter and starts its cleanup loop, which
// stops when ctx is done.
func NewMemoryRateLimiter(ctx context.Context, limit int, window time.Duration) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}

	go rl.cleanupLoop(ctx)

	return rl
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	valid := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

func (rl *MemoryRateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup removes keys with no requests inside the window
func (rl *MemoryRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for key, requests := range rl.requests {
		if len(requests) == 0 || !requests[len(requests)-1].After(cutoff) {
			delete(rl.requests, key)
		}
	}
}

// RedisRateLimiter shares fixed-window counters between instances.
// Redis errors fail open.
type RedisRateLimiter struct {
	client  *redis.Client
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedisRateLimiter connects and pings Redis.
func NewRedisRateLimiter(ctx context.Context, opts *redis.Options, limit int, window time.Duration) (*RedisRateLimiter, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisRateLimiter{
		client:  client,
		prefix:  "teamx:ratelimit:",
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}, nil
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	count, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		slog.Error("redis rate limiter error", "op", "incr", "error", err)
		return true
	}
	if count == 1 {
		err = rl.client.Expire(ctx, redisKey, rl.window).Err()
		if err != nil {
			slog.Error("redis rate limiter error", "op", "expire", "error", err)
		}
	}

	return count <= int64(rl.limit)
}

func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}

// RateLimit limits requests per client IP and route.
func RateLimit(limiter RateLimiter, onLimited func(r *http.Request)) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !limiter.Allow(r.Context(), r.URL.Path+"|"+ip) {
				slog.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
				)
				if onLimited != nil {
					onLimited(r)
				}
				httpx.ErrorStatus(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please try again later.")
				return
			}

			next(w, r)
		}
	}
}

// clientIP extracts real client IP from request
func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
