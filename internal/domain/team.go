package domain

import "time"

// Team owns tickets and workflows.
type Team struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TeamRole describes a user's standing within a team. Managers are
// always part of the escalation recipient set.
type TeamRole string

const (
	TeamRoleManager TeamRole = "MANAGER"
	TeamRoleMember  TeamRole = "MEMBER"
	TeamRoleGuest   TeamRole = "GUEST"
)

// TeamMember links a user to a team with a role.
type TeamMember struct {
	TeamID    string
	UserID    string
	Role      TeamRole
	CreatedAt time.Time
}
