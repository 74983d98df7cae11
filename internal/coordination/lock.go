// Package coordination keeps a source from being crawled twice at the same time.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds how long a crashed holder can block a source.
// A live holder keeps extending the lock until it releases it.
const DefaultLockTTL = 15 * time.Minute

// refreshDivisor sets the refresh cadence to a fraction of the TTL.
const refreshDivisor = 3

var (
	// ErrLockNotAcquired is returned when another crawl holds the source.
	ErrLockNotAcquired = errors.New("lock not acquired")

	// ErrLockNotHeld is returned when trying to release a lock that is not held.
	ErrLockNotHeld = errors.New("lock not held")
)

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// extendScript resets the TTL only if the key still holds our token.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Release gives a held source back.
type Release func(ctx context.Context) error

// Locker grants exclusive access to a source.
type Locker interface {
	Acquire(ctx context.Context, sourceID int64) (Release, error)
}

// RedisLocker is a Locker shared by every process using the same Redis.
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisLocker creates a RedisLocker. A non-positive ttl uses DefaultLockTTL.
func NewRedisLocker(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

// Key returns the lock key for a source.
func (l *RedisLocker) Key(sourceID int64) string {
	return l.keyPrefix + ":lock:source:" + strconv.FormatInt(sourceID, 10)
}

// Acquire takes the source lock without waiting. The lock is extended in the
// background until Release is called, so long crawls keep it.
func (l *RedisLocker) Acquire(ctx context.Context, sourceID int64) (Release, error) {
	key := l.Key(sourceID)
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	var once sync.Once
	return func(releaseCtx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
		})

		result, runErr := unlockScript.Run(releaseCtx, l.client, []string{key}, token).Int()
		if runErr != nil {
			return fmt.Errorf("failed to release lock: %w", runErr)
		}
		if result == 0 {
			return ErrLockNotHeld
		}
		return nil
	}, nil
}

// keepAlive extends key every ttl/refreshDivisor until stop closes or the lock is lost.
func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / refreshDivisor
	if interval <= 0 {
		interval = l.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			result, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err == nil && result == 0 {
				return
			}
		}
	}
}

// LocalLocker is an in-process Locker for deployments without Redis.
type LocalLocker struct {
	mu   sync.Mutex
	held map[int64]struct{}
}

// NewLocalLocker creates a LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[int64]struct{})}
}

// Acquire takes the source lock without waiting.
func (l *LocalLocker) Acquire(_ context.Context, sourceID int64) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[sourceID]; busy {
		return nil, ErrLockNotAcquired
	}
	l.held[sourceID] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		released := false
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, sourceID)
			l.mu.Unlock()
			released = true
		})
		if !released {
			return ErrLockNotHeld
		}
		return nil
	}, nil
}
