package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/workflow-service/internal/api/dto"
	"github.com/spec-kit/workflow-service/internal/service"
	apperrors "github.com/spec-kit/workflow-service/pkg/util"
)

// TicketsHandler exposes the transition executor.
type TicketsHandler struct {
	transitions *service.TransitionService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(transitions *service.TransitionService) *TicketsHandler {
	return &TicketsHandler{transitions: transitions}
}

// ExecuteTransition POST /tickets/:id/transitions.
func (h *TicketsHandler) ExecuteTransition(c *fiber.Ctx) error {
	actorID := strings.TrimSpace(c.Get("X-Actor-ID"))
	if actorID == "" {
		return apperrors.NewValidationError("X-Actor-ID header required", nil)
	}

	var req dto.ExecuteTransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Event) == "" {
		return apperrors.NewValidationError("event required", nil)
	}

	history, err := h.transitions.Execute(c.UserContext(), c.Params("id"), req.Event, actorID)
	if err != nil {
		var invalid *service.InvalidTransitionError
		if errors.As(err, &invalid) {
			return apperrors.NewUnprocessable("INVALID_TRANSITION", invalid.Error(), map[string]any{
				"ticket_id": invalid.TicketID,
				"state_id":  invalid.StateID,
				"event":     invalid.EventName,
			})
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": c.Params("id")})
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.HistoryResponseFrom(history)})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	entries, err := h.transitions.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TransitionHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.HistoryResponseFrom(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
