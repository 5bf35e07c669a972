package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition() *WorkflowDefinition {
	return &WorkflowDefinition{
		Workflow: Workflow{ID: "wf-1", Name: "Support"},
		States: []WorkflowState{
			{ID: "st-open", WorkflowID: "wf-1", Name: "Open", IsInitial: true},
			{ID: "st-working", WorkflowID: "wf-1", Name: "Working"},
			{ID: "st-done", WorkflowID: "wf-1", Name: "Done", IsFinal: true},
		},
		Transitions: []WorkflowTransition{
			{ID: "tr-1", WorkflowID: "wf-1", SourceStateID: "st-open", TargetStateID: "st-working", EventName: "start"},
			{ID: "tr-2", WorkflowID: "wf-1", SourceStateID: "st-working", TargetStateID: "st-done", EventName: "resolve"},
		},
	}
}

func TestFindTransitionMatchesSourceAndEvent(t *testing.T) {
	def := sampleDefinition()

	tr, ok := def.FindTransition("st-open", "start")
	require.True(t, ok)
	assert.Equal(t, "st-working", tr.TargetStateID)

	// Same event name from the wrong state is not an edge.
	_, ok = def.FindTransition("st-working", "start")
	assert.False(t, ok)

	_, ok = def.FindTransition("st-open", "resolve")
	assert.False(t, ok)
}

func TestInitialState(t *testing.T) {
	def := sampleDefinition()
	state, ok := def.InitialState()
	require.True(t, ok)
	assert.Equal(t, "st-open", state.ID)
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	require.NoError(t, sampleDefinition().Validate())
}

func TestValidateRejectsMultipleInitialStates(t *testing.T) {
	def := sampleDefinition()
	def.States[1].IsInitial = true
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial state")
}

func TestValidateRejectsDanglingTransition(t *testing.T) {
	def := sampleDefinition()
	def.Transitions[0].TargetStateID = "st-missing"
	err := def.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "st-missing")
}
