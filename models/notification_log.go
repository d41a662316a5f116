package models

import "time"

// NotificationLog keeps an audit trail of what was pushed to the notification channels.
type NotificationLog struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Kind      string    `gorm:"size:40;index;not null" json:"kind"`
	SubjectID string    `gorm:"size:64;index" json:"subject_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Delivered bool      `gorm:"not null" json:"delivered"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (NotificationLog) TableName() string { return "lib_notification_log" }
