package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"upkeep/internal/feed"
)

// Publisher is the server-side half of the event channel: it pushes freshly
// created notifications onto the owning user's redis channel.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishNotification delivers n to any live session of its user. Offline
// users pick it up from the store on their next initial load.
func (p *Publisher) PublishNotification(ctx context.Context, n feed.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification event: %w", err)
	}
	if err := p.rdb.Publish(ctx, channelFor(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}
