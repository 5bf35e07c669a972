package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workflow-service/internal/domain"
)

// TeamRepository resolves teams and their managers.
type TeamRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ManagersForTeam(ctx context.Context, teamID string) ([]domain.User, error)
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository builds repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM teams WHERE id=$1`
	team := &domain.Team{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *teamRepository) ManagersForTeam(ctx context.Context, teamID string) ([]domain.User, error) {
	const query = `
        SELECT u.id, u.name, u.email, u.timezone, u.status, u.created_at, u.updated_at
        FROM users u
        JOIN team_members tm ON tm.user_id = u.id
        WHERE tm.team_id=$1 AND tm.role=$2 AND u.status=$3
        ORDER BY u.created_at ASC`
	rows, err := r.pool.Query(ctx, query, teamID, domain.TeamRoleManager, domain.UserStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Timezone,
			&user.Status,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
