package chatrooms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrChatroomNotFound is returned when a chatroom does not exist in the
	// org, or exists but is not visible to the requesting user
	ErrChatroomNotFound = errors.New("chatroom not found")

	// ErrLabelNotFound is returned when an access rule references a label
	// that does not belong to the organization
	ErrLabelNotFound = errors.New("label not found")

	// ErrUserNotMember is returned when an access rule references a user
	// that is not a member of the organization
	ErrUserNotMember = errors.New("user is not a member of the organization")
)

// Service provides chatroom operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new chatroom service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// ListVisible retrieves the chatrooms of an organization that the given user
// may see: rooms with no access rules at all, rooms granting the user
// directly, and rooms granting the label on the user's org membership.
func (s *Service) ListVisible(ctx context.Context, orgID, userID uuid.UUID) ([]Chatroom, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.org_id, c.name, c.description, c.created_at, c.updated_at
		FROM chatrooms c
		WHERE c.org_id = $1
		  AND (
			(
				NOT EXISTS (SELECT 1 FROM chatroom_members cm WHERE cm.chatroom_id = c.id)
				AND NOT EXISTS (SELECT 1 FROM chatroom_label_access cla WHERE cla.chatroom_id = c.id)
			)
			OR EXISTS (
				SELECT 1 FROM chatroom_members cm
				WHERE cm.chatroom_id = c.id AND cm.user_id = $2
			)
			OR EXISTS (
				SELECT 1 FROM chatroom_label_access cla
				INNER JOIN org_memberships m ON m.label_id = cla.label_id AND m.org_id = c.org_id
				WHERE cla.chatroom_id = c.id AND m.user_id = $2
			)
		  )
		ORDER BY c.created_at ASC
	`, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chatrooms: %w", err)
	}
	defer rows.Close()

	var result []Chatroom
	for rows.Next() {
		var c Chatroom
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chatroom: %w", err)
		}
		result = append(result, c)
	}

	return result, rows.Err()
}

// GetByID retrieves a chatroom by id within an organization.
func (s *Service) GetByID(ctx context.Context, orgID, chatroomID uuid.UUID) (*Chatroom, error) {
	var c Chatroom
	err := s.pool.QueryRow(ctx, `
		SELECT id, org_id, name, description, created_at, updated_at
		FROM chatrooms
		WHERE id = $1 AND org_id = $2
	`, chatroomID, orgID).Scan(&c.ID, &c.OrgID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatroomNotFound
		}
		return nil, fmt.Errorf("failed to get chatroom: %w", err)
	}
	return &c, nil
}

// GetVisible retrieves a chatroom and verifies the user may see it. Rooms the
// user cannot see behave exactly like rooms that do not exist.
func (s *Service) GetVisible(ctx context.Context, orgID, chatroomID, userID uuid.UUID) (*Chatroom, error) {
	room, err := s.GetByID(ctx, orgID, chatroomID)
	if err != nil {
		return nil, err
	}

	ok, err := s.CanAccess(ctx, room, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrChatroomNotFound
	}
	return room, nil
}

// CanAccess reports whether the user is in the chatroom's visible set.
func (s *Service) CanAccess(ctx context.Context, room *Chatroom, userID uuid.UUID) (bool, error) {
	var restricted bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM chatroom_members WHERE chatroom_id = $1)
		    OR EXISTS (SELECT 1 FROM chatroom_label_access WHERE chatroom_id = $1)
	`, room.ID).Scan(&restricted)
	if err != nil {
		return false, fmt.Errorf("failed to check access rules: %w", err)
	}
	if !restricted {
		return true, nil
	}

	var allowed bool
	err = s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chatroom_members
			WHERE chatroom_id = $1 AND user_id = $2
		) OR EXISTS (
			SELECT 1 FROM chatroom_label_access cla
			INNER JOIN org_memberships m ON m.label_id = cla.label_id AND m.org_id = $3
			WHERE cla.chatroom_id = $1 AND m.user_id = $2
		)
	`, room.ID, userID, room.OrgID).Scan(&allowed)
	if err != nil {
		return false, fmt.Errorf("failed to check access grant: %w", err)
	}
	return allowed, nil
}

// GetAccessRules retrieves the direct-user and label grants of a chatroom.
func (s *Service) GetAccessRules(ctx context.Context, chatroomID uuid.UUID) (*AccessRules, error) {
	rules := &AccessRules{UserIDs: []uuid.UUID{}, LabelIDs: []uuid.UUID{}}

	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM chatroom_members WHERE chatroom_id = $1 ORDER BY user_id ASC
	`, chatroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member grants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member grant: %w", err)
		}
		rules.UserIDs = append(rules.UserIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	labelIDs, err := s.grantedLabelIDs(ctx, chatroomID)
	if err != nil {
		return nil, err
	}
	if labelIDs != nil {
		rules.LabelIDs = labelIDs
	}

	return rules, nil
}

// Create inserts a chatroom and its access rules in one transaction.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, name, description string, rules AccessRules) (*Chatroom, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var c Chatroom
	err = tx.QueryRow(ctx, `
		INSERT INTO chatrooms (org_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, org_id, name, description, created_at, updated_at
	`, orgID, name, description).Scan(&c.ID, &c.OrgID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create chatroom: %w", err)
	}

	if err := s.insertRules(ctx, tx, orgID, c.ID, rules); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &c, nil
}

// UpdateParams carries the changes for a chatroom update. Nil fields are left
// untouched; a non-nil Rules replaces the full access rule set.
type UpdateParams struct {
	Name        *string
	Description *string
	Rules       *AccessRules
}

// Update applies partial changes to a chatroom. Replacing access rules
// deletes the existing grants and inserts the new set atomically.
func (s *Service) Update(ctx context.Context, orgID, chatroomID uuid.UUID, params UpdateParams) (*Chatroom, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var c Chatroom
	err = tx.QueryRow(ctx, `
		UPDATE chatrooms
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING id, org_id, name, description, created_at, updated_at
	`, chatroomID, orgID, params.Name, params.Description).
		Scan(&c.ID, &c.OrgID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatroomNotFound
		}
		return nil, fmt.Errorf("failed to update chatroom: %w", err)
	}

	if params.Rules != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM chatroom_members WHERE chatroom_id = $1`, chatroomID); err != nil {
			return nil, fmt.Errorf("failed to clear member grants: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM chatroom_label_access WHERE chatroom_id = $1`, chatroomID); err != nil {
			return nil, fmt.Errorf("failed to clear label grants: %w", err)
		}
		if err := s.insertRules(ctx, tx, orgID, chatroomID, *params.Rules); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &c, nil
}

// Delete removes a chatroom. Messages and access rules cascade.
func (s *Service) Delete(ctx context.Context, orgID, chatroomID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM chatrooms WHERE id = $1 AND org_id = $2
	`, chatroomID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete chatroom: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChatroomNotFound
	}
	return nil
}

// insertRules validates grant targets against the organization before
// inserting, so a rule can never reference a foreign org's user or label.
func (s *Service) insertRules(ctx context.Context, tx pgx.Tx, orgID, chatroomID uuid.UUID, rules AccessRules) error {
	for _, userID := range rules.UserIDs {
		var isMember bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM org_memberships WHERE org_id = $1 AND user_id = $2
			)
		`, orgID, userID).Scan(&isMember)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if !isMember {
			return ErrUserNotMember
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO chatroom_members (chatroom_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, chatroomID, userID); err != nil {
			return fmt.Errorf("failed to insert member grant: %w", err)
		}
	}

	for _, labelID := range rules.LabelIDs {
		var exists bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM labels WHERE id = $1 AND org_id = $2
			)
		`, labelID, orgID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check label: %w", err)
		}
		if !exists {
			return ErrLabelNotFound
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO chatroom_label_access (chatroom_id, label_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, chatroomID, labelID); err != nil {
			return fmt.Errorf("failed to insert label grant: %w", err)
		}
	}

	return nil
}
