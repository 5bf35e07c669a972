package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// TicketRepository reads tickets and mutates their workflow state field.
// All other ticket CRUD lives upstream.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateState(ctx context.Context, ticketID, stateID string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository builds repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, external_key, team_id, workflow_id, state_id, requester_id,
               assignee_id, title, description, priority, created_at, updated_at
        FROM tickets WHERE id=$1`
	ticket := &domain.Ticket{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.TeamID,
		&ticket.WorkflowID,
		&ticket.StateID,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) UpdateState(ctx context.Context, ticketID, stateID string) error {
	const query = `UPDATE tickets SET state_id=$2, updated_at=now() WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, ticketID, stateID)
	return err
}
