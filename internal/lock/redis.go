package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"

	"galla/backend/internal/store"
)

// Redis shares entity locks between every terminal connected to the same
// Redis. Locks expire after ttl so a crashed holder cannot block a day.
type Redis struct {
	client  *redislock.Client
	ttl     time.Duration
	retries int
	backoff time.Duration
	prefix  string
	logger  *logrus.Logger
}

func NewRedis(client redislock.RedisClient, ttl time.Duration, logger *logrus.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{
		client:  redislock.New(client),
		ttl:     ttl,
		retries: 40,
		backoff: 50 * time.Millisecond,
		prefix:  "galla:lock:",
		logger:  logger,
	}
}

func (r *Redis) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]*redislock.Lock, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Released with a fresh context so a cancelled request still frees its locks.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := held[i].Release(releaseCtx)
			cancel()
			if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) && r.logger != nil {
				r.logger.WithFields(logrus.Fields{
					"module": "lock",
					"key":    held[i].Key(),
				}).Warn("failed to release redis lock: " + err.Error())
			}
		}
	}

	for _, key := range keys {
		l, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.backoff), r.retries),
		})
		if errors.Is(err, redislock.ErrNotObtained) {
			release()
			return nil, fmt.Errorf("%w: %s is held by another terminal", store.ErrConflict, key)
		}
		if err != nil {
			release()
			return nil, err
		}
		held = append(held, l)
	}

	return releaseOnce(release), nil
}
