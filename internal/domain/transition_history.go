package domain

import "time"

// TransitionStatus tracks the SLA lifecycle of a history entry.
type TransitionStatus string

const (
	TransitionStatusPending    TransitionStatus = "PENDING"
	TransitionStatusInProgress TransitionStatus = "IN_PROGRESS"
	TransitionStatusEscalated  TransitionStatus = "ESCALATED"
	TransitionStatusCompleted  TransitionStatus = "COMPLETED"
)

// TransitionHistory is an append-only record of a ticket moving state.
// Only Status is ever mutated after creation: the escalation pipeline
// flips it to ESCALATED, and bookkeeping completes superseded entries
// when the ticket moves on.
type TransitionHistory struct {
	ID             string
	TicketID       string
	WorkflowID     string
	FromStateID    *string
	ToStateID      string
	EventName      string
	TransitionDate time.Time
	SLADueDate     *time.Time
	Status         TransitionStatus
}

// Overdue reports whether the SLA clock has run out at the given instant.
// Entries without an SLA never become overdue.
func (h *TransitionHistory) Overdue(now time.Time) bool {
	if h.SLADueDate == nil {
		return false
	}
	if h.Status != TransitionStatusInProgress && h.Status != TransitionStatusEscalated {
		return false
	}
	return !h.SLADueDate.After(now)
}
