package client

// HTTP implementation of the notification store boundary, used by the feed
// and the push registration pipeline against the upkeep API.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"upkeep/internal/feed"
)

const (
	requestTimeout = 10 * time.Second

	// polite client-side ceiling; the API has no per-user quota yet
	rateLimit = 10
	rateBurst = 20
)

// Client talks to the upkeep notification API. It performs no retries:
// failures surface as *feed.StoreError and the caller decides.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// New creates a client for the API at baseURL, authenticating with the
// session's bearer token
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:     baseURL,
		token:       token,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// SetToken replaces the bearer token, e.g. after a refresh
func (c *Client) SetToken(token string) {
	c.token = token
}

// FetchRecent returns at most limit notifications, newest first. The API
// scopes every call by the bearer token; userID must match its subject.
func (c *Client) FetchRecent(ctx context.Context, userID string, limit int) ([]feed.Notification, error) {
	var out struct {
		Notifications []feed.Notification `json:"notifications"`
	}
	path := "/api/notifications?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK, "fetch recent"); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

// FetchUnreadCount returns the server-computed unread aggregate
func (c *Client) FetchUnreadCount(ctx context.Context, userID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &out, http.StatusOK, "fetch unread count"); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkRead marks one notification read
func (c *Client) MarkRead(ctx context.Context, id string) error {
	path := "/api/notifications/" + url.PathEscape(id) + "/read"
	return c.do(ctx, http.MethodPut, path, nil, nil, http.StatusNoContent, "mark read")
}

// MarkAllRead marks every notification of the authenticated user read
func (c *Client) MarkAllRead(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/read-all", nil, nil, http.StatusNoContent, "mark all read")
}

// Delete requests server-side deletion of one notification
func (c *Client) Delete(ctx context.Context, id string) error {
	path := "/api/notifications/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, http.StatusNoContent, "delete")
}

// RegisterPushSubscription hands a pipeline-produced subscription record to
// the registration endpoint
func (c *Client) RegisterPushSubscription(ctx context.Context, userID string, rec feed.PushSubscriptionRecord) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/subscriptions", rec, nil, http.StatusCreated, "register push subscription")
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, wantStatus int, op string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return &feed.StoreError{Op: op, Err: err}
	}

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &feed.StoreError{Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &feed.StoreError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &feed.StoreError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		cause := fmt.Errorf("unexpected status %s", resp.Status)
		if resp.StatusCode == http.StatusNotFound {
			cause = feed.ErrNotFound
		}
		return &feed.StoreError{Op: op, Status: resp.StatusCode, Err: cause}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &feed.StoreError{Op: op, Err: err}
		}
	}
	return nil
}
