package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"teamspark/internal/transport/http/api"
)

// CounterStore increments a fixed-window counter, returning the count after
// the increment and the window's remaining lifetime.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

type redisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) CounterStore {
	return &redisCounterStore{client: client}
}

func (s *redisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	count := int(incr.Val())
	remaining := ttl.Val()
	if count == 1 || remaining < 0 {
		remaining = window
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
	}
	return count, remaining, nil
}

type memoryBucket struct {
	count int
	reset time.Time
}

type memoryCounterStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

func NewMemoryCounterStore() CounterStore {
	return &memoryCounterStore{buckets: map[string]*memoryBucket{}}
}

func (s *memoryCounterStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[key]
	if !ok || now.After(bucket.reset) {
		bucket = &memoryBucket{reset: now.Add(window)}
		s.buckets[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset.Sub(now), nil
}

// rateKey hashes (client IP, route, user agent) so the stored keys carry no
// raw identifiers.
func rateKey(r *http.Request) string {
	sum := sha256.Sum256([]byte(ClientIP(r) + "|" + r.Method + " " + r.URL.Path + "|" + r.UserAgent()))
	return "rl:" + hex.EncodeToString(sum[:16])
}

// RateLimit enforces a fixed-window request limit per client and route. A
// failing counter store logs and fails open; rejecting traffic because Redis
// blinked would hurt more than letting a window slide.
func RateLimit(limit int, window time.Duration, store CounterStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			count, resetIn, err := store.Incr(r.Context(), rateKey(r), window)
			if err != nil {
				slog.Warn("rate limit store unavailable, failing open", "err", err, "path", r.URL.Path)
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit))
				next.ServeHTTP(w, r)
				return
			}

			remaining := limit - count
			resetSec := int(resetIn.Seconds())
			if resetSec < 1 {
				resetSec = 1
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

			if count > limit {
				w.Header().Set("Retry-After", strconv.Itoa(resetSec))
				slog.Warn("rate limit exceeded", "path", r.URL.Path, "method", r.Method, "limit", limit)
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
