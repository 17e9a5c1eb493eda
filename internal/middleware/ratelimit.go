package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/BruksfildServices01/table-booking/internal/config"
)

// token bucket kept in a Redis hash; returns {allowed, tokens, retry_after_ms}
var limiterScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local interval_ms = tonumber(ARGV[3])
	local ttl_seconds = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + intervals)
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = interval_ms - (now_ms - last_refill)
		if retry_after_ms < 0 then retry_after_ms = 0 end
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

// RateLimiter enforces a per client and route token bucket. Buckets live in
// Redis so every replica shares them; without Redis, or when a Redis call
// fails, an in-process limiter takes over.
type RateLimiter struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
	log zerolog.Logger
	now func() time.Time

	mu    sync.Mutex
	local map[string]*localBucket
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		cfg:   cfg,
		rdb:   rdb,
		log:   log.With().Str("component", "ratelimit").Logger(),
		now:   time.Now,
		local: make(map[string]*localBucket),
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	if !rl.cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := rl.key(c)

		allowed, remaining, retry := rl.take(c, key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			secs := int(math.Ceil(retry.Seconds()))
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error_code": "too_many_requests",
				"message":    "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) take(c *gin.Context, key string) (bool, int64, time.Duration) {
	if rl.rdb != nil {
		vals, err := limiterScript.Run(
			c.Request.Context(),
			rl.rdb,
			[]string{key},
			rl.now().UnixMilli(),
			rl.cfg.Capacity,
			rl.cfg.RefillInterval.Milliseconds(),
			int64(rl.cfg.TTL/time.Second),
		).Result()
		if err == nil {
			if arr, ok := vals.([]interface{}); ok && len(arr) == 3 {
				return asInt64(arr[0]) == 1, asInt64(arr[1]), time.Duration(asInt64(arr[2])) * time.Millisecond
			}
			err = fmt.Errorf("unexpected script result %#v", vals)
		}
		rl.log.Warn().Err(err).Str("key", key).Msg("redis limiter failed, using local bucket")
	}
	return rl.takeLocal(key)
}

func (rl *RateLimiter) takeLocal(key string) (bool, int64, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.local[key]
	if !ok {
		rl.sweep(now)
		b = &localBucket{
			limiter:  rate.NewLimiter(rate.Every(rl.cfg.RefillInterval), rl.cfg.Capacity),
			lastSeen: now,
		}
		rl.local[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int64(b.limiter.TokensAt(now)), 0
}

// sweep drops buckets idle for longer than the TTL. Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, b := range rl.local {
		if now.Sub(b.lastSeen) > rl.cfg.TTL {
			delete(rl.local, k)
		}
	}
}

func (rl *RateLimiter) key(c *gin.Context) string {
	parts := []string{rl.cfg.Prefix}

	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	parts = append(parts, "ip", ip)

	if uid := UserID(c); uid != "" {
		parts = append(parts, "user", uid)
	}

	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	parts = append(parts, "route", c.Request.Method+" "+route)

	return strings.Join(parts, ":")
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
