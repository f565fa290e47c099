package feed

import "context"

// EventChannel delivers server-originated notification events for a single
// user. Events for one user arrive in the order the server emitted them; no
// cross-user ordering is assumed.
type EventChannel interface {
	Subscribe(ctx context.Context, userID string, fn func(Notification)) (Subscription, error)
}

// Subscription is the handle for an active channel. It must be closed when
// the session ends; the Feed owns at most one and releases it on Close.
type Subscription interface {
	Close() error
}
