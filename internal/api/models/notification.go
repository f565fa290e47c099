package models

import (
	"encoding/json"
	"time"

	"upkeep/internal/feed"
)

// Notification is the persisted row behind the wire type in internal/feed
type Notification struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string     `gorm:"not null" json:"title"`
	Body        string     `json:"body"`
	Priority    string     `gorm:"not null;default:normal" json:"priority"`
	Read        bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ActionURL   string     `json:"action_url,omitempty"`
	ActionLabel string     `json:"action_label,omitempty"`
	Payload     []byte     `gorm:"type:jsonb" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ToWire converts the row to the shared wire shape, decoding the stored
// payload document
func (n *Notification) ToWire() feed.Notification {
	var payload map[string]any
	if len(n.Payload) > 0 {
		_ = json.Unmarshal(n.Payload, &payload)
	}
	return feed.Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		Title:       n.Title,
		Body:        n.Body,
		Priority:    feed.Priority(n.Priority),
		Read:        n.Read,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
		ActionURL:   n.ActionURL,
		ActionLabel: n.ActionLabel,
		Payload:     payload,
	}
}
