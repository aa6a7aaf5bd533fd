package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockPrefix is the Redis key prefix for bootstrap run locks.
const lockPrefix = "mongo-init:lock:"

var (
	// ErrLockHeld indicates another run holds the lock.
	ErrLockHeld = errors.New("bootstrap lock is held by another run")
	// ErrLockLost indicates the lock expired or was taken over before release.
	ErrLockLost = errors.New("bootstrap lock was lost before release")
)

// releaseScript deletes the lock only if it still carries our token, so a run
// that outlived its TTL cannot release a lock taken by a later run.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// LockKey returns the lock key for a user in a database.
func LockKey(database, username string) string {
	return lockPrefix + database + ":" + username
}

// AcquireLock takes the lock with SET NX PX. The returned release function
// must be called once the run finishes.
func (c *Cache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token, err := newLockToken()
	if err != nil {
		return nil, err
	}

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, c.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if deleted == 0 {
			return ErrLockLost
		}
		return nil
	}

	return release, nil
}

func newLockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
