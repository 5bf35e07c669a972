package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// TransitionWriter applies a ticket's state change and its history row
// in one transaction, so a failed history insert cannot leave the
// ticket advanced without a log entry.
type TransitionWriter interface {
	ApplyTransition(ctx context.Context, ticketID, stateID string, history *domain.TransitionHistory) error
}

type transitionWriter struct {
	pool *pgxpool.Pool
}

// NewTransitionWriter builds the writer.
func NewTransitionWriter(pool *pgxpool.Pool) TransitionWriter {
	return &transitionWriter{pool: pool}
}

func (w *transitionWriter) ApplyTransition(ctx context.Context, ticketID, stateID string, history *domain.TransitionHistory) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const updateQuery = `UPDATE tickets SET state_id=$2, updated_at=now() WHERE id=$1`
	if _, err := tx.Exec(ctx, updateQuery, ticketID, stateID); err != nil {
		return err
	}

	const insertQuery = `
        INSERT INTO transition_histories
            (ticket_id, workflow_id, from_state_id, to_state_id, event_name,
             transition_date, sla_due_date, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	if err := tx.QueryRow(ctx, insertQuery,
		history.TicketID,
		history.WorkflowID,
		history.FromStateID,
		history.ToStateID,
		history.EventName,
		history.TransitionDate,
		history.SLADueDate,
		history.Status,
	).Scan(&history.ID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
