package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	unlockScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end"
	extendScript = "if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end"
)

// RedisLocker hands out locks shared by every process talking to the same Redis.
// Each acquisition stores a random token so only its owner can release or extend it.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker creates a locker whose keys live under prefix.
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) key(name string) string {
	return l.prefix + name
}

// Acquire sets the lock key with SET NX and the given expiry.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	key := l.key(name)

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, name)
	}

	return func(ctx context.Context) error {
		res, err := l.client.Eval(ctx, unlockScript, []string{key}, token).Result()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", name, err)
		}
		if res == int64(0) {
			return fmt.Errorf("lock %s expired or is owned by someone else", name)
		}
		return nil
	}, nil
}

// Extend pushes the expiry of a lock this process still owns. The token is the
// value stored at acquisition; Holder exposes it for long-running jobs.
func (l *RedisLocker) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	res, err := l.client.Eval(ctx, extendScript, []string{l.key(name)}, token, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("failed to extend lock %s: %w", name, err)
	}
	if res == int64(0) {
		return fmt.Errorf("lock %s expired or is owned by someone else", name)
	}
	return nil
}

// Holder returns the token currently stored for a lock, or "" if it is free.
func (l *RedisLocker) Holder(ctx context.Context, name string) (string, error) {
	val, err := l.client.Get(ctx, l.key(name)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
