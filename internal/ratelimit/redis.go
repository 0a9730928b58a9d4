package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "order_rate:"

// RedisLimiter shares submission history between service instances through a
// Redis sorted set per key, scored by submission time in milliseconds.
//
// The read and the record are separate round trips, so two instances racing
// on the same key can both admit a submission.
type RedisLimiter struct {
	client redis.UniversalClient
	policy Policy
}

// NewRedisLimiter creates a Redis-backed limiter enforcing policy.
func NewRedisLimiter(client redis.UniversalClient, policy Policy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy}
}

// Allow implements Limiter.
func (l *RedisLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	rkey := keyPrefix + key
	cutoff := now.Add(-l.policy.Window).UnixMilli()

	var rangeCmd *redis.ZSliceCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, rkey, "-inf", strconv.FormatInt(cutoff, 10))
		rangeCmd = pipe.ZRangeWithScores(ctx, rkey, 0, -1)
		return nil
	})
	if err != nil {
		return Decision{}, errors.Wrap(err, "read submission history")
	}

	entries, err := rangeCmd.Result()
	if err != nil {
		return Decision{}, errors.Wrap(err, "read submission history")
	}

	recent := make([]time.Time, 0, len(entries))
	for _, z := range entries {
		recent = append(recent, time.UnixMilli(int64(z.Score)))
	}

	d := l.policy.decide(recent, now)
	if !d.Allowed {
		return d, nil
	}

	ms := now.UnixMilli()
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(ms), Member: strconv.FormatInt(now.UnixNano(), 10)})
		pipe.PExpire(ctx, rkey, l.policy.Window)
		return nil
	})
	if err != nil {
		return Decision{}, errors.Wrap(err, "record submission")
	}
	return d, nil
}
