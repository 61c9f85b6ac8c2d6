// Package cache wraps the Redis side of the service: a short-lived cache of
// participants' current-activity views, plus the operational counters the
// materializer and metrics endpoint share.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ActivityScheduler/internal/domain"

	"github.com/redis/go-redis/v9"
)

// ViewKey is one cached activity view for a participant. The signature
// captures the query parameters, so differently shaped requests cache
// independently. Format: "view:{participantID}:{signature}".
func ViewKey(participantID, signature string) string {
	return "view:" + participantID + ":" + signature
}

// viewSetKey tracks every live view key of a participant so invalidation
// can drop them all without a SCAN.
func viewSetKey(participantID string) string {
	return "view:" + participantID + ":keys"
}

// CounterKey namespaces an operational counter, e.g.
// "metrics:materializer:ticks".
func CounterKey(component, name string) string {
	return "metrics:" + component + ":" + name
}

// DefaultViewTTL bounds staleness of a cached view between invalidations.
const DefaultViewTTL = 5 * time.Minute

// GetView returns a cached view, or (nil, false) on a miss.
func GetView(ctx context.Context, rdb *redis.Client, participantID, signature string) ([]domain.ScheduledActivity, bool, error) {
	raw, err := rdb.Get(ctx, ViewKey(participantID, signature)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []domain.ScheduledActivity
	if err := json.Unmarshal(raw, &items); err != nil {
		// A corrupt entry behaves like a miss; the next put overwrites it.
		return nil, false, nil
	}
	return items, true, nil
}

func PutView(ctx context.Context, rdb *redis.Client, participantID, signature string, items []domain.ScheduledActivity, ttl time.Duration) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	key := ViewKey(participantID, signature)
	pipe := rdb.TxPipeline()
	pipe.Set(ctx, key, raw, ttl)
	pipe.SAdd(ctx, viewSetKey(participantID), key)
	pipe.Expire(ctx, viewSetKey(participantID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateViews drops every cached view of a participant after a state
// change.
func InvalidateViews(ctx context.Context, rdb *redis.Client, participantID string) error {
	keys, err := rdb.SMembers(ctx, viewSetKey(participantID)).Result()
	if err != nil {
		return err
	}
	keys = append(keys, viewSetKey(participantID))
	return rdb.Del(ctx, keys...).Err()
}

func IncrCounter(ctx context.Context, rdb *redis.Client, component, name string) error {
	return rdb.Incr(ctx, CounterKey(component, name)).Err()
}

// RecordLastRun stores the most recent materializer pass as a hash, read back
// verbatim by the metrics endpoint.
func RecordLastRun(ctx context.Context, rdb *redis.Client, component string, fields map[string]any) error {
	return rdb.HSet(ctx, CounterKey(component, "last"), fields).Err()
}

// Connect parses a redis:// URL, opens a client and verifies it with a ping.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
