// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevasetu/api/internal/platform/constants"
	"github.com/sevasetu/api/pkg/uuid"
)

// # Redis Storage

// watchRetries is how many times a conflicting WATCH transaction is retried
// before the check fails closed.
const watchRetries = 3

// redisStore keeps one sorted set per (identifier, category), scored by
// event timestamp in nanoseconds.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates the production [Store] backed by Redis sorted sets.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

/*
CheckAndRecord implements [Store].

The whole sequence runs under WATCH on the event key: trim events older than
the window, count the remainder, and either record the new event inside a
MULTI/EXEC block or report the oldest event for the retry-after hint. A
concurrent write to the same key aborts the EXEC and the sequence is retried.
*/
func (store *redisStore) CheckAndRecord(ctx context.Context, identifier string, category string, max int, window time.Duration, now time.Time) (bool, time.Time, error) {
	key := store.key(identifier, category)

	var allowed bool
	var oldest time.Time

	transaction := func(tx *redis.Tx) error {
		windowStart := now.Add(-window).UnixNano()

		// Lazy reclamation: drop events that fell out of the window.
		if err := tx.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(windowStart, 10)).Err(); err != nil {
			return fmt.Errorf("redis zremrangebyscore: %w", err)
		}

		count, err := tx.ZCard(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("redis zcard: %w", err)
		}

		// At budget: report the oldest in-window event, record nothing.
		if count >= int64(max) {
			values, err := tx.ZRangeWithScores(ctx, key, 0, 0).Result()
			if err != nil {
				return fmt.Errorf("redis zrange: %w", err)
			}
			if len(values) > 0 {
				oldest = time.Unix(0, int64(values[0].Score))
			} else {
				oldest = now
			}
			allowed = false
			return nil
		}

		// Below budget: record the event and refresh the key TTL atomically.
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, key, redis.Z{
				Score:  float64(now.UnixNano()),
				Member: uuid.New(),
			})
			pipe.Expire(ctx, key, window)
			return nil
		})
		if err != nil {
			return err
		}

		allowed = true
		return nil
	}

	// Retry on WATCH conflicts caused by concurrent checks on the same key.
	for attempt := 0; attempt < watchRetries; attempt++ {
		err := store.client.Watch(ctx, transaction, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return false, time.Time{}, err
		}
		return allowed, oldest, nil
	}

	return false, time.Time{}, fmt.Errorf("ratelimit: transaction conflict persisted after %d retries", watchRetries)
}

// key builds the sorted-set key for one (identifier, category) pair.
func (store *redisStore) key(identifier, category string) string {
	return fmt.Sprintf("%s:%s:%s", constants.RedisPrefixRateLimit, category, identifier)
}
