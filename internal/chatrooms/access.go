package chatrooms

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ResolveVisibleMembers computes the set of users allowed to see a chatroom.
//
// Rooms with no access rules are open to the whole organization. Otherwise
// the visible set is the union of directly granted users and users whose
// membership label holds a grant, deduplicated by user id.
func (s *Service) ResolveVisibleMembers(ctx context.Context, room *Chatroom) ([]VisibleMember, error) {
	direct, err := s.directMembers(ctx, room.ID, room.OrgID)
	if err != nil {
		return nil, err
	}

	labelIDs, err := s.grantedLabelIDs(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	// Open-by-default: no restriction configured means every org member.
	if len(direct) == 0 && len(labelIDs) == 0 {
		return s.allOrgMembers(ctx, room.OrgID)
	}

	labeled, err := s.labelMembers(ctx, room.OrgID, labelIDs)
	if err != nil {
		return nil, err
	}

	return mergeVisible(direct, labeled), nil
}

// mergeVisible unions two member lists, keeping the first occurrence of each
// user id. The result is sorted by user id for deterministic output.
func mergeVisible(direct, labeled []VisibleMember) []VisibleMember {
	seen := make(map[uuid.UUID]struct{}, len(direct)+len(labeled))
	merged := make([]VisibleMember, 0, len(direct)+len(labeled))

	for _, m := range direct {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range labeled {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		merged = append(merged, m)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].UserID.String() < merged[j].UserID.String()
	})

	return merged
}

func (s *Service) directMembers(ctx context.Context, chatroomID, orgID uuid.UUID) ([]VisibleMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, COALESCE(m.role, 'MEMBER')
		FROM chatroom_members cm
		INNER JOIN users u ON cm.user_id = u.id
		LEFT JOIN org_memberships m ON m.user_id = u.id AND m.org_id = $2
		WHERE cm.chatroom_id = $1
	`, chatroomID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch direct members: %w", err)
	}
	defer rows.Close()

	return scanVisibleMembers(rows)
}

func (s *Service) grantedLabelIDs(ctx context.Context, chatroomID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT label_id FROM chatroom_label_access WHERE chatroom_id = $1
	`, chatroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label grants: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan label grant: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) labelMembers(ctx context.Context, orgID uuid.UUID, labelIDs []uuid.UUID) ([]VisibleMember, error) {
	if len(labelIDs) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, m.role
		FROM org_memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.org_id = $1 AND m.label_id = ANY($2)
	`, orgID, labelIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch label members: %w", err)
	}
	defer rows.Close()

	return scanVisibleMembers(rows)
}

func (s *Service) allOrgMembers(ctx context.Context, orgID uuid.UUID) ([]VisibleMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.username, m.role
		FROM org_memberships m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.org_id = $1
		ORDER BY u.id ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch org members: %w", err)
	}
	defer rows.Close()

	return scanVisibleMembers(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanVisibleMembers(rows rowScanner) ([]VisibleMember, error) {
	var members []VisibleMember
	for rows.Next() {
		var m VisibleMember
		if err := rows.Scan(&m.UserID, &m.Username, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
