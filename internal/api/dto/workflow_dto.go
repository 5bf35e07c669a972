package dto

import (
	"github.com/spec-kit/workflow-service/internal/domain"
)

// WorkflowStateResponse represents one node of the graph.
type WorkflowStateResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsInitial bool   `json:"is_initial"`
	IsFinal   bool   `json:"is_final"`
}

// WorkflowTransitionResponse represents one edge of the graph.
type WorkflowTransitionResponse struct {
	ID                  string `json:"id"`
	SourceStateID       string `json:"source_state_id"`
	TargetStateID       string `json:"target_state_id"`
	EventName           string `json:"event_name"`
	SLADurationMin      *int   `json:"sla_duration_min,omitempty"`
	EscalateOnViolation bool   `json:"escalate_on_violation"`
}

// WorkflowDefinitionResponse represents a workflow with its graph.
type WorkflowDefinitionResponse struct {
	ID                  string                       `json:"id"`
	TeamID              *string                      `json:"team_id,omitempty"`
	Name                string                       `json:"name"`
	RequestName         string                       `json:"request_name"`
	Visibility          domain.WorkflowVisibility    `json:"visibility"`
	Level1EscalationMin int                          `json:"level1_escalation_min"`
	Level2EscalationMin int                          `json:"level2_escalation_min"`
	Level3EscalationMin int                          `json:"level3_escalation_min"`
	States              []WorkflowStateResponse      `json:"states"`
	Transitions         []WorkflowTransitionResponse `json:"transitions"`
}

// DefinitionResponseFrom maps a domain definition.
func DefinitionResponseFrom(def *domain.WorkflowDefinition) WorkflowDefinitionResponse {
	resp := WorkflowDefinitionResponse{
		ID:                  def.Workflow.ID,
		TeamID:              def.Workflow.TeamID,
		Name:                def.Workflow.Name,
		RequestName:         def.Workflow.RequestName,
		Visibility:          def.Workflow.Visibility,
		Level1EscalationMin: def.Workflow.Level1EscalationMin,
		Level2EscalationMin: def.Workflow.Level2EscalationMin,
		Level3EscalationMin: def.Workflow.Level3EscalationMin,
	}
	for i := range def.States {
		state := &def.States[i]
		resp.States = append(resp.States, WorkflowStateResponse{
			ID:        state.ID,
			Name:      state.Name,
			IsInitial: state.IsInitial,
			IsFinal:   state.IsFinal,
		})
	}
	for i := range def.Transitions {
		transition := &def.Transitions[i]
		resp.Transitions = append(resp.Transitions, WorkflowTransitionResponse{
			ID:                  transition.ID,
			SourceStateID:       transition.SourceStateID,
			TargetStateID:       transition.TargetStateID,
			EventName:           transition.EventName,
			SLADurationMin:      transition.SLADurationMin,
			EscalateOnViolation: transition.EscalateOnViolation,
		})
	}
	return resp
}
