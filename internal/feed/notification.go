package feed

import "time"

// Priority controls how a notification is surfaced to the user
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriority reports whether p is one of the known priority levels
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Notification is the wire representation shared by the API, the realtime
// channel and the local feed
type Notification struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Priority    Priority       `json:"priority"`
	Read        bool           `json:"read"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	ActionURL   string         `json:"action_url,omitempty"`
	ActionLabel string         `json:"action_label,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}
