package domain

import "time"

// WorkflowTransition is a directed edge between two states of the same
// workflow, triggered by a named event. SLADurationMin, when set, starts
// an SLA clock at transition time.
type WorkflowTransition struct {
	ID                  string
	WorkflowID          string
	SourceStateID       string
	TargetStateID       string
	EventName           string
	SLADurationMin      *int
	EscalateOnViolation bool
	CreatedAt           time.Time
}

// SLADuration returns the SLA window as a duration, or false when the
// transition carries no SLA.
func (t *WorkflowTransition) SLADuration() (time.Duration, bool) {
	if t.SLADurationMin == nil {
		return 0, false
	}
	return time.Duration(*t.SLADurationMin) * time.Minute, true
}
