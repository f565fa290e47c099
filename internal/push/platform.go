package push

import (
	"context"

	"upkeep/internal/feed"
)

// Permission mirrors the platform's notification permission state. It is
// owned by the platform, never by us.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Platform wraps the push, permission and background-worker primitives of
// the runtime behind a small capability surface the pipeline can drive.
type Platform interface {
	// Supported reports whether the runtime exposes push capability at all
	Supported() bool
	// RequestPermission prompts the user and returns the resulting state
	RequestPermission(ctx context.Context) (Permission, error)
	// RegisterWorker registers the background worker at the given scope and
	// blocks until it reports ready or ctx expires
	RegisterWorker(ctx context.Context, scope string) (Worker, error)
}

// Worker is a ready background worker able to hold a push subscription
type Worker interface {
	// Subscription returns the existing subscription, nil when there is none
	Subscription(ctx context.Context) (*Subscription, error)
	// Subscribe creates a subscription using the server's public key in
	// binary form
	Subscribe(ctx context.Context, serverKey []byte) (*Subscription, error)
}

// Subscription is the platform-issued push credential in its wire shape
type Subscription struct {
	Endpoint string                `json:"endpoint"`
	Keys     feed.SubscriptionKeys `json:"keys"`
}
