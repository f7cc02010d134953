package models

import "time"

// NotificationType is the closed set of notification kinds.
type NotificationType string

const (
	NotificationViewMilestone NotificationType = "view_milestone"
	NotificationNewMessage    NotificationType = "new_message"
	NotificationSystemAlert   NotificationType = "system_alert"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationViewMilestone, NotificationNewMessage, NotificationSystemAlert:
		return true
	}
	return false
}

// Notification is a per-user event record. Only IsRead changes after creation.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Link      string           `gorm:"size:255" json:"link,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time        `gorm:"index:idx_notifications_user_created,priority:2" json:"created_at"`
}
