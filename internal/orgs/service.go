package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	// ErrOrgNotFound is returned when an organization is not found
	ErrOrgNotFound = errors.New("organization not found")

	// ErrNameConflict is returned when an organization name already exists
	ErrNameConflict = errors.New("organization name already exists")

	// ErrNotMember is returned when a user is not a member of an organization
	ErrNotMember = errors.New("user is not a member of this organization")

	// ErrInsufficientRole is returned when a user's role does not allow an action
	ErrInsufficientRole = errors.New("insufficient role for this action")
)

// Service provides organization-related operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new organization service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// GetByID retrieves an organization by ID
func (s *Service) GetByID(ctx context.Context, orgID uuid.UUID) (*Org, error) {
	var org Org

	query := `
		SELECT id, name, owner_id, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	err := s.pool.QueryRow(ctx, query, orgID).Scan(
		&org.ID,
		&org.Name,
		&org.OwnerID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return &org, nil
}

// ListUserOrgs retrieves all organizations for a user with their roles
func (s *Service) ListUserOrgs(ctx context.Context, userID uuid.UUID) ([]OrgWithRole, error) {
	query := `
		SELECT o.id, o.name, o.owner_id, o.created_at, o.updated_at, m.role
		FROM organizations o
		INNER JOIN org_memberships m ON o.id = m.org_id
		WHERE m.user_id = $1
		ORDER BY o.created_at DESC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orgs: %w", err)
	}
	defer rows.Close()

	var result []OrgWithRole
	for rows.Next() {
		var org OrgWithRole
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.OwnerID,
			&org.CreatedAt,
			&org.UpdatedAt,
			&org.Role,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan org: %w", err)
		}
		result = append(result, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating org rows: %w", err)
	}

	return result, nil
}

// CreateWithOwner creates a new organization and makes the user an OWNER.
// The org row and the owner membership are written in one transaction.
func (s *Service) CreateWithOwner(ctx context.Context, name string, userID uuid.UUID) (*Org, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var org Org
	query := `
		INSERT INTO organizations (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query, name, userID).Scan(
		&org.ID,
		&org.Name,
		&org.OwnerID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrNameConflict
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	memberQuery := `
		INSERT INTO org_memberships (org_id, user_id, role)
		VALUES ($1, $2, $3)
	`

	_, err = tx.Exec(ctx, memberQuery, org.ID, userID, RoleOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &org, nil
}

// GetUserRole retrieves a user's role in an organization
// Returns ErrNotMember if the user is not a member
func (s *Service) GetUserRole(ctx context.Context, userID, orgID uuid.UUID) (Role, error) {
	var role Role

	query := `
		SELECT role FROM org_memberships
		WHERE org_id = $1 AND user_id = $2
	`

	err := s.pool.QueryRow(ctx, query, orgID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotMember
		}
		return "", fmt.Errorf("failed to get org role: %w", err)
	}

	return role, nil
}

// Authorize looks up the user's membership and checks it against the policy
// table for the given action. Returns the user's role on success,
// ErrNotMember when no membership row exists, and ErrInsufficientRole when
// the role is not in the allowed set.
func (s *Service) Authorize(ctx context.Context, userID, orgID uuid.UUID, action Action) (Role, error) {
	role, err := s.GetUserRole(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			log.Debug().
				Str("user_id", userID.String()).
				Str("org_id", orgID.String()).
				Str("action", string(action)).
				Msg("RBAC: user is not a member of organization")
		}
		return "", err
	}

	if !Allowed(role, action) {
		log.Warn().
			Str("user_id", userID.String()).
			Str("org_id", orgID.String()).
			Str("user_role", string(role)).
			Str("action", string(action)).
			Msg("RBAC: insufficient role")
		return role, ErrInsufficientRole
	}

	return role, nil
}
