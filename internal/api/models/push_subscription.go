package models

import "time"

// PushSubscription is a registered web push credential for one device of a
// user. The endpoint is globally unique per the push service, so it carries
// the uniqueness constraint.
type PushSubscription struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Endpoint   string    `gorm:"uniqueIndex;not null" json:"endpoint"`
	P256dh     string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth       string    `gorm:"not null" json:"auth"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
