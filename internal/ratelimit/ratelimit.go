// Package ratelimit implements a fixed-window request counter in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const fixedWindowLua = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// Result is the outcome of one counted request.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter allows at most limit hits per key within each window.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
	script *redis.Script
}

func New(rdb *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	if prefix == "" {
		prefix = "taskboard:ratelimit"
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
		script: redis.NewScript(fixedWindowLua),
	}
}

// Limit returns the configured number of hits per window.
func (l *Limiter) Limit() int {
	if l == nil {
		return 0
	}
	return l.limit
}

// Allow counts one hit for key. A nil or unconfigured limiter allows everything.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 || l.window <= 0 {
		return Result{Allowed: true, Limit: l.Limit(), Remaining: l.Limit()}, nil
	}

	res, err := l.script.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit eval: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) < 2 {
		return Result{}, fmt.Errorf("ratelimit invalid result %v", res)
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)

	out := Result{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: l.limit - int(count),
	}
	if out.Remaining < 0 {
		out.Remaining = 0
	}
	if !out.Allowed {
		out.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return out, nil
}
