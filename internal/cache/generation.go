package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// A generation counter sits next to each cached key. Invalidation bumps it,
// and a loader may only store its result if the counter still holds the
// value read before the load started. A load that raced an invalidation is
// returned to its caller but never cached.

const (
	genKeyPrefix = "gen:"

	// genTTL outlives any load by far; an expired counter restarts at zero.
	genTTL = 24 * time.Hour
)

var errStale = errors.New("cache generation moved")

func genKey(key string) string {
	return genKeyPrefix + key
}

// generation returns the current invalidation count of key.
func generation(ctx context.Context, client *redis.Client, key string) (int64, error) {
	n, err := client.Get(ctx, genKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// storeIfCurrent writes payload under key unless key was invalidated after
// gen was read. It reports whether the value was stored.
func storeIfCurrent(ctx context.Context, client *redis.Client, key string, gen int64, payload []byte, ttl time.Duration) (bool, error) {
	gk := genKey(key)
	err := client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Int64()
		if errors.Is(err, redis.Nil) {
			cur, err = 0, nil
		}
		if err != nil {
			return err
		}
		if cur != gen {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, gk)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

// invalidate drops key and moves its generation so in-flight loads cannot
// store what they read before.
func invalidate(ctx context.Context, client *redis.Client, key string) error {
	gk := genKey(key)
	_, err := client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, gk)
		p.Expire(ctx, gk, genTTL)
		p.Del(ctx, key)
		return nil
	})
	return err
}

// flightKey separates singleflight groups of different generations.
func flightKey(key string, gen int64) string {
	return key + "@" + strconv.FormatInt(gen, 10)
}
