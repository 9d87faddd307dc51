// Package ratelimit throttles matchmaking requests per participant using a
// Redis fixed window: INCR on a per-identifier key that expires with the
// window.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a rate limiting policy: the Redis key prefix, maximum number of
// requests allowed in the window, and the window duration.
type Rule struct {
	Key    string
	Limit  int
	Window time.Duration
}

// RuleJoin allows 10 join requests per minute per participant.
var RuleJoin = Rule{Key: "rl:join:", Limit: 10, Window: time.Minute}

// Limiter performs rate limiting checks against Redis.
type Limiter struct {
	client *redis.Client
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// Allow counts one request for identifier under rule and reports whether it
// is within the limit. Redis errors fail open: the request is allowed and
// the error returned for logging.
func (l *Limiter) Allow(ctx context.Context, identifier string, rule Rule) (bool, error) {
	key := rule.Key + identifier

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, rule.Window)
		return nil
	})
	if err != nil {
		log.Printf("[ratelimit] redis error key=%s: %v (failing open)", key, err)
		return true, err
	}

	return int(incr.Val()) <= rule.Limit, nil
}
