package realtime

import (
	"context"
	"sync"

	"upkeep/internal/feed"
)

// MemoryChannel is an in-process feed.EventChannel used by tests and the
// demo binary. Delivery is synchronous in the publisher's goroutine, which
// preserves per-user arrival order.
type MemoryChannel struct {
	mu   sync.Mutex
	subs map[string]map[*memorySubscription]struct{}
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{subs: make(map[string]map[*memorySubscription]struct{})}
}

func (c *MemoryChannel) Subscribe(_ context.Context, userID string, fn func(feed.Notification)) (feed.Subscription, error) {
	sub := &memorySubscription{channel: c, userID: userID, fn: fn}
	c.mu.Lock()
	if c.subs[userID] == nil {
		c.subs[userID] = make(map[*memorySubscription]struct{})
	}
	c.subs[userID][sub] = struct{}{}
	c.mu.Unlock()
	return sub, nil
}

// PublishNotification fans the event out to the live subscriptions of its
// user. The signature matches the server side's publisher so tests can wire
// both halves to the same instance.
func (c *MemoryChannel) PublishNotification(_ context.Context, n feed.Notification) error {
	c.mu.Lock()
	targets := make([]*memorySubscription, 0, len(c.subs[n.UserID]))
	for sub := range c.subs[n.UserID] {
		targets = append(targets, sub)
	}
	c.mu.Unlock()

	for _, sub := range targets {
		sub.fn(n)
	}
	return nil
}

// Subscribers reports how many live subscriptions a user has
func (c *MemoryChannel) Subscribers(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[userID])
}

type memorySubscription struct {
	channel *MemoryChannel
	userID  string
	fn      func(feed.Notification)
}

func (s *memorySubscription) Close() error {
	s.channel.mu.Lock()
	defer s.channel.mu.Unlock()
	delete(s.channel.subs[s.userID], s)
	return nil
}
