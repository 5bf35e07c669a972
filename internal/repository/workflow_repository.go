package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// WorkflowRepository loads workflow definitions. Definitions are
// consumed read-only by the transition executor and escalation engine.
type WorkflowRepository interface {
	GetDefinition(ctx context.Context, workflowID string) (*domain.WorkflowDefinition, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository builds repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

func (r *workflowRepository) GetDefinition(ctx context.Context, workflowID string) (*domain.WorkflowDefinition, error) {
	const workflowQuery = `
        SELECT id, team_id, name, request_name, description, visibility,
               level1_escalation_min, level2_escalation_min, level3_escalation_min,
               cloned_from_id, created_at, updated_at
        FROM workflows WHERE id=$1`

	def := &domain.WorkflowDefinition{}
	err := r.pool.QueryRow(ctx, workflowQuery, workflowID).Scan(
		&def.Workflow.ID,
		&def.Workflow.TeamID,
		&def.Workflow.Name,
		&def.Workflow.RequestName,
		&def.Workflow.Description,
		&def.Workflow.Visibility,
		&def.Workflow.Level1EscalationMin,
		&def.Workflow.Level2EscalationMin,
		&def.Workflow.Level3EscalationMin,
		&def.Workflow.ClonedFromID,
		&def.Workflow.CreatedAt,
		&def.Workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	const statesQuery = `
        SELECT id, workflow_id, name, is_initial, is_final, created_at
        FROM workflow_states WHERE workflow_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, statesQuery, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var state domain.WorkflowState
		if err := rows.Scan(
			&state.ID,
			&state.WorkflowID,
			&state.Name,
			&state.IsInitial,
			&state.IsFinal,
			&state.CreatedAt,
		); err != nil {
			return nil, err
		}
		def.States = append(def.States, state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const transitionsQuery = `
        SELECT id, workflow_id, source_state_id, target_state_id, event_name,
               sla_duration_min, escalate_on_violation, created_at
        FROM workflow_transitions WHERE workflow_id=$1 ORDER BY created_at ASC`
	trows, err := r.pool.Query(ctx, transitionsQuery, workflowID)
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var transition domain.WorkflowTransition
		if err := trows.Scan(
			&transition.ID,
			&transition.WorkflowID,
			&transition.SourceStateID,
			&transition.TargetStateID,
			&transition.EventName,
			&transition.SLADurationMin,
			&transition.EscalateOnViolation,
			&transition.CreatedAt,
		); err != nil {
			return nil, err
		}
		def.Transitions = append(def.Transitions, transition)
	}
	return def, trows.Err()
}
