package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
)

var ErrLockNotHeld = errors.New(errors.ErrCodeConflict, "lock not held by this owner")

const mutexUnlockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`

// Locker hands out best-effort mutual exclusion between replicas, e.g. so a
// scheduled job runs on one instance at a time. Locks expire after their TTL
// even if never released.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

type redisLocker struct {
	client   *Client
	logger   logging.Logger
	newValue func() string
}

func NewLocker(client *Client, log logging.Logger) Locker {
	return &redisLocker{client: client, logger: log, newValue: func() string { return uuid.NewString() }}
}

func buildLockKey(name string) string {
	return "lock:mutex:" + name
}

func (l *redisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := buildLockKey(name)
	value := l.newValue()

	ok, err := l.client.GetUnderlyingClient().SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		res, err := l.client.GetUnderlyingClient().Eval(ctx, mutexUnlockScript, []string{key}, value).Int64()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
		}
		if res == 0 {
			return ErrLockNotHeld
		}
		return nil
	}
	return unlock, true, nil
}

// localLocker always grants the lock. Used when Redis is disabled and only
// one replica runs.
type localLocker struct{}

func NewLocalLocker() Locker { return localLocker{} }

func (localLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
