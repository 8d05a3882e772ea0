package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	// ErrMemberNotFound is returned when the target membership does not exist
	ErrMemberNotFound = errors.New("member not found")

	// ErrUserNotFound is returned when no user matches the given email
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyMember is returned when the user already belongs to the org
	ErrAlreadyMember = errors.New("user is already a member")

	// ErrInvalidRole is returned for unknown role values
	ErrInvalidRole = errors.New("invalid role")

	// ErrLabelNotFound is returned when a label id does not belong to the org
	ErrLabelNotFound = errors.New("label not found")

	// ErrCannotDemoteLastOwner is returned when demoting the only OWNER
	ErrCannotDemoteLastOwner = errors.New("cannot demote the last owner")

	// ErrCannotRemoveLastOwner is returned when removing the only OWNER
	ErrCannotRemoveLastOwner = errors.New("cannot remove the last owner")
)

// ListMembers retrieves all members of an organization
func (s *Service) ListMembers(ctx context.Context, orgID uuid.UUID) ([]MemberInfo, error) {
	query := `
		SELECT m.user_id, u.username, u.email, m.role, m.label_id
		FROM org_memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.org_id = $1
		ORDER BY m.created_at ASC
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []MemberInfo
	for rows.Next() {
		var member MemberInfo
		var labelID uuid.NullUUID
		err := rows.Scan(
			&member.UserID,
			&member.Username,
			&member.Email,
			&member.Role,
			&labelID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if labelID.Valid {
			id := labelID.UUID
			member.LabelID = &id
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

// AddMemberByEmail adds an existing user to the organization with the given
// role. The composite primary key on org_memberships guards against
// concurrent duplicate joins.
func (s *Service) AddMemberByEmail(ctx context.Context, orgID uuid.UUID, email string, role Role) (*MemberInfo, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	var member MemberInfo
	err := s.pool.QueryRow(ctx, `
		SELECT id, username, email FROM users WHERE email = $1
	`, email).Scan(&member.UserID, &member.Username, &member.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO org_memberships (org_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (org_id, user_id) DO NOTHING
	`, orgID, member.UserID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyMember
	}

	member.Role = role
	return &member, nil
}

// UpdateMember changes a member's role and label assignment. Demoting the
// last OWNER is rejected so the organization always keeps at least one owner.
func (s *Service) UpdateMember(ctx context.Context, orgID, targetUserID uuid.UUID, newRole Role, labelID *uuid.UUID) (previousRole Role, err error) {
	if !newRole.IsValid() {
		return "", ErrInvalidRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var currentRole Role
	if err := tx.QueryRow(ctx, `
		SELECT role
		FROM org_memberships
		WHERE org_id = $1 AND user_id = $2
		FOR UPDATE
	`, orgID, targetUserID).Scan(&currentRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrMemberNotFound
		}
		return "", fmt.Errorf("failed to load member role: %w", err)
	}

	if labelID != nil {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM labels WHERE id = $1 AND org_id = $2)
		`, *labelID, orgID).Scan(&exists); err != nil {
			return "", fmt.Errorf("failed to check label: %w", err)
		}
		if !exists {
			return "", ErrLabelNotFound
		}
	}

	if currentRole == RoleOwner && newRole != RoleOwner {
		owners, err := countOwnersForUpdate(ctx, tx, orgID)
		if err != nil {
			return "", err
		}
		if owners <= 1 {
			return "", ErrCannotDemoteLastOwner
		}
	}

	var label uuid.NullUUID
	if labelID != nil {
		label = uuid.NullUUID{UUID: *labelID, Valid: true}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE org_memberships
		SET role = $3, label_id = $4, updated_at = NOW()
		WHERE org_id = $1 AND user_id = $2
	`, orgID, targetUserID, newRole, label); err != nil {
		return "", fmt.Errorf("failed to update member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return currentRole, nil
}

// RemoveMember removes a member from the organization. Removing the last
// OWNER is rejected.
func (s *Service) RemoveMember(ctx context.Context, orgID, targetUserID uuid.UUID) (removedRole Role, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var targetRole Role
	if err := tx.QueryRow(ctx, `
		SELECT role
		FROM org_memberships
		WHERE org_id = $1 AND user_id = $2
		FOR UPDATE
	`, orgID, targetUserID).Scan(&targetRole); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrMemberNotFound
		}
		return "", fmt.Errorf("failed to load member role: %w", err)
	}

	if targetRole == RoleOwner {
		owners, err := countOwnersForUpdate(ctx, tx, orgID)
		if err != nil {
			return "", err
		}
		if owners <= 1 {
			return "", ErrCannotRemoveLastOwner
		}
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM org_memberships
		WHERE org_id = $1 AND user_id = $2
	`, orgID, targetUserID)
	if err != nil {
		return "", fmt.Errorf("failed to remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrMemberNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return targetRole, nil
}

// countOwnersForUpdate locks the OWNER rows of the org and counts them.
func countOwnersForUpdate(ctx context.Context, tx pgx.Tx, orgID uuid.UUID) (int, error) {
	rows, err := tx.Query(ctx, `
		SELECT user_id
		FROM org_memberships
		WHERE org_id = $1 AND role = $2
		FOR UPDATE
	`, orgID, RoleOwner)
	if err != nil {
		return 0, fmt.Errorf("failed to lock owners: %w", err)
	}
	defer rows.Close()

	var owners int
	for rows.Next() {
		owners++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to lock owners: %w", err)
	}
	return owners, nil
}
