package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// TransitionHistoryRepository stores the append-only transition log.
type TransitionHistoryRepository interface {
	Create(ctx context.Context, history *domain.TransitionHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TransitionHistory, error)
	// ListOverdue returns entries still under SLA tracking whose due
	// date has passed, oldest first.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.TransitionHistory, error)
	UpdateStatus(ctx context.Context, historyID string, status domain.TransitionStatus) error
	// CompleteAllExcept closes out SLA tracking on every non-terminal
	// entry of a ticket other than keepID. Bookkeeping for when the
	// ticket moves on before (or after) a violation.
	CompleteAllExcept(ctx context.Context, ticketID, keepID string) error
}

type transitionHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTransitionHistoryRepository builds repository.
func NewTransitionHistoryRepository(pool *pgxpool.Pool) TransitionHistoryRepository {
	return &transitionHistoryRepository{pool: pool}
}

func (r *transitionHistoryRepository) Create(ctx context.Context, history *domain.TransitionHistory) error {
	const query = `
        INSERT INTO transition_histories
            (ticket_id, workflow_id, from_state_id, to_state_id, event_name,
             transition_date, sla_due_date, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		history.TicketID,
		history.WorkflowID,
		history.FromStateID,
		history.ToStateID,
		history.EventName,
		history.TransitionDate,
		history.SLADueDate,
		history.Status,
	).Scan(&history.ID)
}

func (r *transitionHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TransitionHistory, error) {
	const query = `
        SELECT id, ticket_id, workflow_id, from_state_id, to_state_id, event_name,
               transition_date, sla_due_date, status
        FROM transition_histories WHERE ticket_id=$1 ORDER BY transition_date ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistories(rows)
}

func (r *transitionHistoryRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]domain.TransitionHistory, error) {
	const query = `
        SELECT id, ticket_id, workflow_id, from_state_id, to_state_id, event_name,
               transition_date, sla_due_date, status
        FROM transition_histories
        WHERE status IN ($1,$2) AND sla_due_date IS NOT NULL AND sla_due_date <= $3
        ORDER BY sla_due_date ASC
        LIMIT $4`
	rows, err := r.pool.Query(ctx, query,
		domain.TransitionStatusInProgress,
		domain.TransitionStatusEscalated,
		now,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistories(rows)
}

func (r *transitionHistoryRepository) UpdateStatus(ctx context.Context, historyID string, status domain.TransitionStatus) error {
	const query = `UPDATE transition_histories SET status=$2 WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, historyID, status)
	return err
}

func (r *transitionHistoryRepository) CompleteAllExcept(ctx context.Context, ticketID, keepID string) error {
	const query = `
        UPDATE transition_histories SET status=$3
        WHERE ticket_id=$1 AND id<>$2 AND status IN ($4,$5)`
	_, err := r.pool.Exec(ctx, query,
		ticketID,
		keepID,
		domain.TransitionStatusCompleted,
		domain.TransitionStatusInProgress,
		domain.TransitionStatusEscalated,
	)
	return err
}

func scanHistories(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.TransitionHistory, error) {
	var result []domain.TransitionHistory
	for rows.Next() {
		var history domain.TransitionHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.WorkflowID,
			&history.FromStateID,
			&history.ToStateID,
			&history.EventName,
			&history.TransitionDate,
			&history.SLADueDate,
			&history.Status,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
