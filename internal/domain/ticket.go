package domain

import "time"

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the aggregate for support requests. Its position in the
// workflow graph is tracked by StateID; only the transition executor
// mutates that field.
type Ticket struct {
	ID          string
	ExternalKey string
	TeamID      string
	WorkflowID  string
	StateID     string
	RequesterID string
	AssigneeID  *string
	Title       string
	Description string
	Priority    TicketPriority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
