package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// MaxItems bounds the local display window. The unread counter is tracked
// separately because the server-side total can exceed what fits here.
const MaxItems = 50

// ErrClosed is returned by operations on a feed after Close
var ErrClosed = errors.New("feed: closed")

// Toaster is invoked for every newly arrived realtime notification
type Toaster func(n Notification, p Presentation)

// Option configures a Feed
type Option func(*Feed)

// WithToaster sets the hook called for each incoming realtime notification
func WithToaster(t Toaster) Option {
	return func(f *Feed) { f.toast = t }
}

// WithLogger sets the structured logger
func WithLogger(log *slog.Logger) Option {
	return func(f *Feed) { f.log = log }
}

// Feed reconciles the server-synchronized notification list for one
// authenticated user. It is the single owner of the local list and unread
// counter; realtime events and user-initiated mutations may arrive from
// different goroutines and are serialized by the internal mutex. Network
// calls always run outside the lock.
type Feed struct {
	store  NotificationStore
	events EventChannel
	userID string
	toast  Toaster
	log    *slog.Logger

	mu      sync.Mutex
	items   []Notification
	seen    map[string]bool
	unread  int
	loading bool
	fetched bool
	lastErr error
	gen     uint64
	sub     Subscription
	closed  bool
}

// New builds a feed for the given user. Call Start to subscribe and load.
func New(store NotificationStore, events EventChannel, userID string, opts ...Option) *Feed {
	f := &Feed{
		store:  store,
		events: events,
		userID: userID,
		seen:   make(map[string]bool),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start opens the realtime subscription and performs the initial load. The
// subscription stays open even if the load fails, so a later Refresh can
// recover without resubscribing.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.sub != nil {
		f.mu.Unlock()
		return errors.New("feed: already started")
	}
	f.mu.Unlock()

	sub, err := f.events.Subscribe(ctx, f.userID, f.handleIncoming)
	if err != nil {
		return fmt.Errorf("subscribe to notification events: %w", err)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.Close()
		return ErrClosed
	}
	f.sub = sub
	f.mu.Unlock()

	return f.Refresh(ctx, false)
}

// Refresh re-runs the initial load. Without force it is a one-shot guarded
// by the fetched flag, so the rapid re-evaluation that happens around auth
// state changes cannot trigger duplicate fetches. A forced refresh runs even
// while another load is in flight; the generation counter makes the newest
// call win and stale completions are discarded.
func (f *Feed) Refresh(ctx context.Context, force bool) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.fetched && !force {
		f.mu.Unlock()
		return nil
	}
	if f.loading && !force {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	f.fetched = true
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	var (
		wg       sync.WaitGroup
		items    []Notification
		count    int
		itemsErr error
		countErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		items, itemsErr = f.store.FetchRecent(ctx, f.userID, MaxItems)
	}()
	go func() {
		defer wg.Done()
		count, countErr = f.store.FetchUnreadCount(ctx, f.userID)
	}()
	wg.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if gen != f.gen {
		// superseded by a newer refresh; its completion owns the state
		return nil
	}
	f.loading = false
	if itemsErr != nil || countErr != nil {
		err := itemsErr
		if err == nil {
			err = countErr
		}
		f.lastErr = err
		f.log.Warn("notification load failed", "user_id", f.userID, "error", err)
		return err
	}
	f.replaceLocked(items, count)
	f.lastErr = nil
	return nil
}

// replaceLocked atomically swaps in a fresh window and counter
func (f *Feed) replaceLocked(items []Notification, count int) {
	f.items = f.items[:0]
	f.seen = make(map[string]bool, len(items))
	for _, n := range items {
		if f.seen[n.ID] {
			continue
		}
		if len(f.items) == MaxItems {
			break
		}
		f.seen[n.ID] = true
		f.items = append(f.items, n)
	}
	if count < 0 {
		count = 0
	}
	f.unread = count
}

// handleIncoming applies one realtime event. Duplicates (the same id seen by
// both a fetch and the channel) resolve last-writer-wins on the read flag,
// adjusting the counter only on an actual flag transition.
func (f *Feed) handleIncoming(n Notification) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if f.seen[n.ID] {
		for i := range f.items {
			if f.items[i].ID != n.ID {
				continue
			}
			wasRead := f.items[i].Read
			f.items[i] = n
			if wasRead && !n.Read {
				f.unread++
			} else if !wasRead && n.Read {
				f.decUnreadLocked()
			}
			break
		}
		f.mu.Unlock()
		return
	}

	f.items = append(f.items, Notification{})
	copy(f.items[1:], f.items)
	f.items[0] = n
	if len(f.items) > MaxItems {
		for _, evicted := range f.items[MaxItems:] {
			delete(f.seen, evicted.ID)
		}
		f.items = f.items[:MaxItems]
	}
	f.seen[n.ID] = true
	// eviction never touches the counter: the window is a view, the counter
	// is the server aggregate
	if !n.Read {
		f.unread++
	}
	toast := f.toast
	f.mu.Unlock()

	if toast != nil {
		toast(n, PresentationFor(n))
	}
}

// MarkRead optimistically marks one notification read, then confirms with
// the store. The optimistic delta is reverted if the store call fails.
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	applied := false
	var prevReadAt *time.Time
	if i := f.findLocked(id); i >= 0 && !f.items[i].Read {
		now := time.Now()
		prevReadAt = f.items[i].ReadAt
		f.items[i].Read = true
		f.items[i].ReadAt = &now
		f.decUnreadLocked()
		applied = true
	}
	f.mu.Unlock()

	if err := f.store.MarkRead(ctx, id); err != nil {
		if applied {
			f.mu.Lock()
			if i := f.findLocked(id); i >= 0 && f.items[i].Read {
				f.items[i].Read = false
				f.items[i].ReadAt = prevReadAt
				f.unread++
			}
			f.mu.Unlock()
		}
		return err
	}
	return nil
}

// MarkAllRead marks every windowed notification read and zeroes the counter,
// then confirms with the store, reverting the touched items on failure.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	now := time.Now()
	type delta struct {
		id     string
		readAt *time.Time
	}
	var touched []delta
	for i := range f.items {
		if f.items[i].Read {
			continue
		}
		touched = append(touched, delta{id: f.items[i].ID, readAt: f.items[i].ReadAt})
		f.items[i].Read = true
		f.items[i].ReadAt = &now
	}
	prevUnread := f.unread
	f.unread = 0
	f.mu.Unlock()

	if err := f.store.MarkAllRead(ctx, f.userID); err != nil {
		f.mu.Lock()
		restored := 0
		for _, d := range touched {
			if i := f.findLocked(d.id); i >= 0 && f.items[i].Read {
				f.items[i].Read = false
				f.items[i].ReadAt = d.readAt
				restored++
			}
		}
		// restore only what we actually reverted, not the raw snapshot, so
		// realtime arrivals during the flight are not double-counted
		f.unread += restored + (prevUnread - len(touched))
		if f.unread < 0 {
			f.unread = 0
		}
		f.mu.Unlock()
		return err
	}
	return nil
}

// Dismiss removes the notification locally and requests server deletion,
// reinserting it if the delete fails
func (f *Feed) Dismiss(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	idx := f.findLocked(id)
	var removed Notification
	if idx >= 0 {
		removed = f.items[idx]
		f.items = append(f.items[:idx], f.items[idx+1:]...)
		delete(f.seen, id)
		if !removed.Read {
			f.decUnreadLocked()
		}
	}
	f.mu.Unlock()

	if err := f.store.Delete(ctx, id); err != nil {
		if idx >= 0 {
			f.mu.Lock()
			if !f.seen[id] {
				// the counter restore must not depend on window room: arrivals
				// during the flight may have refilled it to cap, but the server
				// aggregate still includes the undeleted row
				if !removed.Read {
					f.unread++
				}
				if len(f.items) < MaxItems {
					pos := idx
					if pos > len(f.items) {
						pos = len(f.items)
					}
					f.items = append(f.items, Notification{})
					copy(f.items[pos+1:], f.items[pos:])
					f.items[pos] = removed
					f.seen[id] = true
				}
			}
			f.mu.Unlock()
		}
		return err
	}
	return nil
}

// Close releases the realtime subscription and resets all local state. It is
// safe to call more than once.
func (f *Feed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	sub := f.sub
	f.sub = nil
	f.items = nil
	f.seen = make(map[string]bool)
	f.unread = 0
	f.fetched = false
	f.loading = false
	f.lastErr = nil
	f.mu.Unlock()

	if sub != nil {
		return sub.Close()
	}
	return nil
}

// Items returns a copy of the current display window, newest first
func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

// UnreadCount returns the authoritative unread counter
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Loading reports whether an initial load or refresh is in flight
func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Err returns the error recorded by the last failed load, nil after a
// successful one
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Feed) findLocked(id string) int {
	for i := range f.items {
		if f.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *Feed) decUnreadLocked() {
	if f.unread > 0 {
		f.unread--
	}
}
