package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"upkeep/internal/feed"
)

// RedisChannel implements feed.EventChannel over redis pub/sub. Each
// Subscribe opens one dedicated PubSub connection whose lifetime is bound to
// the returned handle.
type RedisChannel struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisChannel(rdb *redis.Client, log *slog.Logger) *RedisChannel {
	if log == nil {
		log = slog.Default()
	}
	return &RedisChannel{rdb: rdb, log: log}
}

// Subscribe starts delivering events for userID to fn, in arrival order, from
// a single pump goroutine. The handle must be closed to release the
// connection and stop the pump.
func (c *RedisChannel) Subscribe(ctx context.Context, userID string, fn func(feed.Notification)) (feed.Subscription, error) {
	ps := c.rdb.Subscribe(ctx, channelFor(userID))

	// confirm the subscription before handing out the handle
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channelFor(userID), err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			var n feed.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				c.log.Warn("dropping malformed notification event",
					"channel", msg.Channel, "error", err)
				continue
			}
			fn(n)
		}
	}()

	return &redisSubscription{ps: ps, done: done}, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	done chan struct{}
	once sync.Once
	err  error
}

// Close tears down the pub/sub connection and waits for the pump goroutine
// to drain, so no handler call can race past it
func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		<-s.done
	})
	return s.err
}
