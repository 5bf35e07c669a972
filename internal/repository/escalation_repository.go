package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// EscalationRepository stores escalation tracking rows.
type EscalationRepository interface {
	Create(ctx context.Context, tracking *domain.EscalationTracking) error
	// MaxLevelForTicket returns 0 when the ticket was never escalated.
	MaxLevelForTicket(ctx context.Context, ticketID string) (int, error)
	// LatestAtLevel returns nil when no escalation exists at the level.
	LatestAtLevel(ctx context.Context, ticketID string, level int) (*domain.EscalationTracking, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.EscalationTracking, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) Create(ctx context.Context, tracking *domain.EscalationTracking) error {
	const query = `
        INSERT INTO escalation_trackings (ticket_id, level, escalated_to_id, escalation_time)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		tracking.TicketID,
		tracking.Level,
		tracking.EscalatedToID,
		tracking.EscalationTime,
	).Scan(&tracking.ID)
}

func (r *escalationRepository) MaxLevelForTicket(ctx context.Context, ticketID string) (int, error) {
	const query = `SELECT COALESCE(MAX(level), 0) FROM escalation_trackings WHERE ticket_id=$1`
	var level int
	if err := r.pool.QueryRow(ctx, query, ticketID).Scan(&level); err != nil {
		return 0, err
	}
	return level, nil
}

func (r *escalationRepository) LatestAtLevel(ctx context.Context, ticketID string, level int) (*domain.EscalationTracking, error) {
	const query = `
        SELECT id, ticket_id, level, escalated_to_id, escalation_time
        FROM escalation_trackings
        WHERE ticket_id=$1 AND level=$2
        ORDER BY escalation_time DESC
        LIMIT 1`
	tracking := &domain.EscalationTracking{}
	err := r.pool.QueryRow(ctx, query, ticketID, level).Scan(
		&tracking.ID,
		&tracking.TicketID,
		&tracking.Level,
		&tracking.EscalatedToID,
		&tracking.EscalationTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tracking, nil
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.EscalationTracking, error) {
	const query = `
        SELECT id, ticket_id, level, escalated_to_id, escalation_time
        FROM escalation_trackings WHERE ticket_id=$1 ORDER BY escalation_time ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationTracking
	for rows.Next() {
		var tracking domain.EscalationTracking
		if err := rows.Scan(
			&tracking.ID,
			&tracking.TicketID,
			&tracking.Level,
			&tracking.EscalatedToID,
			&tracking.EscalationTime,
		); err != nil {
			return nil, err
		}
		result = append(result, tracking)
	}
	return result, rows.Err()
}
