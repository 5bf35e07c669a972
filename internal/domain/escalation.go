package domain

import "time"

// MaxEscalationLevel is the highest configurable tier. Escalation
// saturates here instead of erroring.
const MaxEscalationLevel = 3

// EscalationTracking records one escalation event for a ticket. Levels
// for a given ticket form a non-decreasing sequence; the maximum level
// observed gates further escalation together with the workflow's
// per-tier cool-down.
type EscalationTracking struct {
	ID             string
	TicketID       string
	Level          int
	EscalatedToID  *string
	EscalationTime time.Time
}
