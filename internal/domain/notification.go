package domain

import "time"

// NotificationType distinguishes in-app notification categories.
type NotificationType string

const (
	NotificationTypeSLABreach NotificationType = "SLA_BREACH"
	NotificationTypeSystem    NotificationType = "SYSTEM"
)

// Notification is the persisted in-app record, the system of record for
// escalation alerts. Push and email deliveries are advisory copies.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Content   string
	Link      string
	IsRead    bool
	CreatedAt time.Time
}
