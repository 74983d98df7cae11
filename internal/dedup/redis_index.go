package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/north-cloud/aggregator/internal/logger"
)

const fingerprintKeySegment = ":fingerprint:"

// RedisIndex caches positive answers in Redis in front of another index.
// Cache failures are logged and the wrapped index answers alone.
type RedisIndex struct {
	client    *redis.Client
	next      Index
	keyPrefix string
	ttl       time.Duration
	log       logger.Logger
}

// NewRedisIndex wraps next with a Redis cache. A zero ttl keeps keys forever.
func NewRedisIndex(client *redis.Client, next Index, keyPrefix string, ttl time.Duration, log logger.Logger) *RedisIndex {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisIndex{
		client:    client,
		next:      next,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		log:       log,
	}
}

func (r *RedisIndex) key(fingerprint string) string {
	return r.keyPrefix + fingerprintKeySegment + fingerprint
}

// Seen checks the cache first and falls through to the wrapped index on a miss.
func (r *RedisIndex) Seen(ctx context.Context, fingerprint string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(fingerprint)).Result()
	if err != nil {
		r.log.Warn("Fingerprint cache lookup failed",
			logger.String("fingerprint", fingerprint),
			logger.Error(err),
		)
	} else if n > 0 {
		return true, nil
	}

	seen, err := r.next.Seen(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	if seen {
		r.cache(ctx, fingerprint)
	}
	return seen, nil
}

// Remember records fingerprint in the wrapped index, then in the cache.
func (r *RedisIndex) Remember(ctx context.Context, fingerprint string) error {
	if err := r.next.Remember(ctx, fingerprint); err != nil {
		return err
	}
	r.cache(ctx, fingerprint)
	return nil
}

func (r *RedisIndex) cache(ctx context.Context, fingerprint string) {
	if err := r.client.Set(ctx, r.key(fingerprint), 1, r.ttl).Err(); err != nil {
		r.log.Warn("Fingerprint cache write failed",
			logger.String("fingerprint", fingerprint),
			logger.Error(err),
		)
	}
}
