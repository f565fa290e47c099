package feed

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by StoreError when the server reports an unknown id
var ErrNotFound = errors.New("not found")

// StoreError is returned for any failed call against the notification store.
// Status carries the HTTP status code when the failure came from a response,
// zero when the request never completed.
type StoreError struct {
	Op     string
	Status int
	Err    error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notification store: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("notification store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SubscriptionKeys are the client keys of a web push subscription,
// base64url-encoded as handed out by the platform
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// DeviceInfo is a best-effort hint about the registering device. It is never
// load-bearing for delivery.
type DeviceInfo struct {
	Type    string `json:"device_type"`
	Browser string `json:"browser"`
	Name    string `json:"device_name"`
}

// PushSubscriptionRecord is the payload handed once to the server
// registration endpoint after a successful pipeline run
type PushSubscriptionRecord struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
	Device   DeviceInfo       `json:"device_info"`
}

// NotificationStore is the network boundary to the backend notification
// table. Implementations perform no retries; failures surface as *StoreError
// and callers decide what to do with the local state.
type NotificationStore interface {
	// FetchRecent returns at most limit notifications, newest first
	FetchRecent(ctx context.Context, userID string, limit int) ([]Notification, error)
	// FetchUnreadCount returns the server-side unread aggregate, which may
	// exceed what FetchRecent's limit can show
	FetchUnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
	RegisterPushSubscription(ctx context.Context, userID string, rec PushSubscriptionRecord) error
}
