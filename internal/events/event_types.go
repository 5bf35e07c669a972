package events

import (
	"time"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketTransitioned EventType = "ticket.transitioned"
	EventTicketEscalated    EventType = "ticket.escalated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketTransitionedPayload payload.
type TicketTransitionedPayload struct {
	WorkflowID  string     `json:"workflow_id"`
	HistoryID   string     `json:"history_id"`
	FromStateID *string    `json:"from_state_id,omitempty"`
	ToStateID   string     `json:"to_state_id"`
	EventName   string     `json:"event_name"`
	SLADueDate  *time.Time `json:"sla_due_date,omitempty"`
	TargetFinal bool       `json:"target_final"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Level         int                     `json:"level"`
	EscalatedToID *string                 `json:"escalated_to_id,omitempty"`
	Priority      domain.TicketPriority   `json:"priority"`
	Status        domain.TransitionStatus `json:"status"`
}
