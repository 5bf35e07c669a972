package domain

import "fmt"

// WorkflowDefinition bundles a workflow with its full state graph.
// Definitions are loaded read-only by the transition executor and the
// escalation pipeline.
type WorkflowDefinition struct {
	Workflow    Workflow
	States      []WorkflowState
	Transitions []WorkflowTransition
}

// StateByID resolves a state of this workflow.
func (d *WorkflowDefinition) StateByID(id string) (*WorkflowState, bool) {
	for i := range d.States {
		if d.States[i].ID == id {
			return &d.States[i], true
		}
	}
	return nil, false
}

// InitialState returns the single state flagged initial.
func (d *WorkflowDefinition) InitialState() (*WorkflowState, bool) {
	for i := range d.States {
		if d.States[i].IsInitial {
			return &d.States[i], true
		}
	}
	return nil, false
}

// FindTransition matches the outgoing edge for (source state, event name).
func (d *WorkflowDefinition) FindTransition(sourceStateID, eventName string) (*WorkflowTransition, bool) {
	for i := range d.Transitions {
		t := &d.Transitions[i]
		if t.SourceStateID == sourceStateID && t.EventName == eventName {
			return t, true
		}
	}
	return nil, false
}

// Validate checks structural invariants: exactly one initial state and
// every transition referencing states of this workflow.
func (d *WorkflowDefinition) Validate() error {
	initial := 0
	ids := make(map[string]struct{}, len(d.States))
	for i := range d.States {
		ids[d.States[i].ID] = struct{}{}
		if d.States[i].IsInitial {
			initial++
		}
	}
	if initial != 1 {
		return fmt.Errorf("workflow %s: expected exactly one initial state, found %d", d.Workflow.ID, initial)
	}
	for i := range d.Transitions {
		t := &d.Transitions[i]
		if _, ok := ids[t.SourceStateID]; !ok {
			return fmt.Errorf("workflow %s: transition %s references unknown source state %s", d.Workflow.ID, t.EventName, t.SourceStateID)
		}
		if _, ok := ids[t.TargetStateID]; !ok {
			return fmt.Errorf("workflow %s: transition %s references unknown target state %s", d.Workflow.ID, t.EventName, t.TargetStateID)
		}
	}
	return nil
}
