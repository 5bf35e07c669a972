package dto

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// NotificationResponse represents an in-app notification.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Content   string                  `json:"content"`
	Link      string                  `json:"link"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

// NotificationResponseFrom maps a domain notification.
func NotificationResponseFrom(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Content:   n.Content,
		Link:      n.Link,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
