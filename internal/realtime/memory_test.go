package realtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upkeep/internal/feed"
	"upkeep/internal/realtime"
)

func TestMemoryChannelDeliversToOwnUserOnly(t *testing.T) {
	c := realtime.NewMemoryChannel()

	var alice, bob []string
	subA, err := c.Subscribe(context.Background(), "alice", func(n feed.Notification) {
		alice = append(alice, n.ID)
	})
	require.NoError(t, err)
	defer subA.Close()

	subB, err := c.Subscribe(context.Background(), "bob", func(n feed.Notification) {
		bob = append(bob, n.ID)
	})
	require.NoError(t, err)
	defer subB.Close()

	require.NoError(t, c.PublishNotification(context.Background(), feed.Notification{ID: "n1", UserID: "alice"}))
	require.NoError(t, c.PublishNotification(context.Background(), feed.Notification{ID: "n2", UserID: "alice"}))
	require.NoError(t, c.PublishNotification(context.Background(), feed.Notification{ID: "n3", UserID: "bob"}))

	assert.Equal(t, []string{"n1", "n2"}, alice)
	assert.Equal(t, []string{"n3"}, bob)
}

func TestMemoryChannelCloseStopsDelivery(t *testing.T) {
	c := realtime.NewMemoryChannel()

	delivered := 0
	sub, err := c.Subscribe(context.Background(), "alice", func(feed.Notification) {
		delivered++
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Subscribers("alice"))

	require.NoError(t, sub.Close())
	assert.Equal(t, 0, c.Subscribers("alice"))

	require.NoError(t, c.PublishNotification(context.Background(), feed.Notification{ID: "n1", UserID: "alice"}))
	assert.Equal(t, 0, delivered)
}

func TestMemoryChannelFansOut(t *testing.T) {
	c := realtime.NewMemoryChannel()

	// two live sessions of the same user, e.g. two open tabs
	got := make([]int, 2)
	for i := 0; i < 2; i++ {
		i := i
		sub, err := c.Subscribe(context.Background(), "alice", func(feed.Notification) {
			got[i]++
		})
		require.NoError(t, err)
		defer sub.Close()
	}

	require.NoError(t, c.PublishNotification(context.Background(), feed.Notification{ID: "n1", UserID: "alice"}))
	assert.Equal(t, []int{1, 1}, got)
}
