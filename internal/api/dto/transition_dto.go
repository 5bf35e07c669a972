package dto

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// ExecuteTransitionRequest payload.
type ExecuteTransitionRequest struct {
	Event string `json:"event"`
}

// TransitionHistoryResponse represents one transition log entry.
type TransitionHistoryResponse struct {
	ID             string                  `json:"id"`
	TicketID       string                  `json:"ticket_id"`
	FromStateID    *string                 `json:"from_state_id,omitempty"`
	ToStateID      string                  `json:"to_state_id"`
	EventName      string                  `json:"event_name"`
	TransitionDate time.Time               `json:"transition_date"`
	SLADueDate     *time.Time              `json:"sla_due_date,omitempty"`
	Status         domain.TransitionStatus `json:"status"`
}

// HistoryResponseFrom maps a domain history entry.
func HistoryResponseFrom(h *domain.TransitionHistory) TransitionHistoryResponse {
	return TransitionHistoryResponse{
		ID:             h.ID,
		TicketID:       h.TicketID,
		FromStateID:    h.FromStateID,
		ToStateID:      h.ToStateID,
		EventName:      h.EventName,
		TransitionDate: h.TransitionDate,
		SLADueDate:     h.SLADueDate,
		Status:         h.Status,
	}
}
