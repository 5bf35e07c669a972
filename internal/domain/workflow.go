package domain

import "time"

// WorkflowVisibility controls which teams may use a workflow.
type WorkflowVisibility string

const (
	VisibilityPublic  WorkflowVisibility = "PUBLIC"
	VisibilityPrivate WorkflowVisibility = "PRIVATE"
	VisibilityTeam    WorkflowVisibility = "TEAM"
)

// Workflow identifies a directed graph of states owned by one team.
// A nil TeamID marks a global template usable by any team.
type Workflow struct {
	ID                  string
	TeamID              *string
	Name                string
	RequestName         string
	Description         string
	Visibility          WorkflowVisibility
	Level1EscalationMin int
	Level2EscalationMin int
	Level3EscalationMin int
	ClonedFromID        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EscalationTimeout returns the configured timeout for the given tier
// as a duration. Unknown tiers report zero.
func (w *Workflow) EscalationTimeout(level int) time.Duration {
	switch level {
	case 1:
		return time.Duration(w.Level1EscalationMin) * time.Minute
	case 2:
		return time.Duration(w.Level2EscalationMin) * time.Minute
	case 3:
		return time.Duration(w.Level3EscalationMin) * time.Minute
	default:
		return 0
	}
}
