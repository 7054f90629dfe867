package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "linkage/pkg/domain-errors"
)

// ErrNotAcquired is returned when the lock stays held past the retry budget.
var ErrNotAcquired = errors.New("lock not acquired")

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Redis is a distributed lock for multi-instance deployments: SET NX PX with a
// random owner token, released through a compare-and-delete script.
type Redis struct {
	client     redis.UniversalClient
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
	retries    int
}

// RedisOption configures a Redis lock.
type RedisOption func(*Redis)

// WithTTL bounds how long a crashed holder can block a key.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithRetry sets the acquisition retry budget.
func WithRetry(delay time.Duration, retries int) RedisOption {
	return func(r *Redis) {
		r.retryDelay = delay
		r.retries = retries
	}
}

// WithPrefix namespaces lock keys.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// NewRedis creates a Redis-backed lock.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		client:     client,
		prefix:     "linkage:lock:create:",
		ttl:        10 * time.Second,
		retryDelay: 25 * time.Millisecond,
		retries:    200,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock retries SET NX until acquired, ctx is done, or the retry budget runs out.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := r.prefix + key
	token := uuid.NewString()

	for attempt := 0; attempt <= r.retries; attempt++ {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire creation lock")
		}
		if ok {
			return func() {
				// Release with a fresh context so a cancelled request still frees the key.
				releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
				defer cancel()
				_ = unlockScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err()
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retryDelay):
		}
	}
	return nil, fmt.Errorf("%s: %w", key, ErrNotAcquired)
}
