package domain

import "time"

// WorkflowState is a named node in a workflow graph.
type WorkflowState struct {
	ID         string
	WorkflowID string
	Name       string
	IsInitial  bool
	IsFinal    bool
	CreatedAt  time.Time
}
