package labels

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrLabelNotFound is returned when a label does not exist in the org
	ErrLabelNotFound = errors.New("label not found")

	// ErrNameConflict is returned when a label name already exists in the org
	ErrNameConflict = errors.New("label name already exists")
)

// Service provides label operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new label service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// List retrieves all labels of an organization
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Label, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, org_id, name, color, created_at
		FROM labels
		WHERE org_id = $1
		ORDER BY name ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var result []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.ID, &l.OrgID, &l.Name, &l.Color, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		result = append(result, l)
	}

	return result, rows.Err()
}

// Create inserts a new label in the organization
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, name, color string) (*Label, error) {
	var l Label
	err := s.pool.QueryRow(ctx, `
		INSERT INTO labels (org_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, org_id, name, color, created_at
	`, orgID, name, color).Scan(&l.ID, &l.OrgID, &l.Name, &l.Color, &l.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, ErrNameConflict
		}
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	return &l, nil
}

// Delete removes a label. Chatroom access rules referencing it are removed
// by FK cascade; member label assignments are set to NULL.
func (s *Service) Delete(ctx context.Context, orgID, labelID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM labels WHERE id = $1 AND org_id = $2
	`, labelID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLabelNotFound
	}
	return nil
}
