package realtime

// channelFor names the per-user pub/sub channel. One channel per user keeps
// cross-user ordering out of the contract entirely.
func channelFor(userID string) string {
	return "notifications:user:" + userID
}
