package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// NotificationsHandler exposes the in-app notification feed.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Get("X-Actor-ID"))
	if userID == "" {
		return apperrors.NewValidationError("X-Actor-ID header required", nil)
	}

	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	entries, err := h.notifications.ListForUser(c.UserContext(), userID, unreadOnly, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NotificationResponseFrom(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Get("X-Actor-ID"))
	if userID == "" {
		return apperrors.NewValidationError("X-Actor-ID header required", nil)
	}
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id"), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
