package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrContactNotFound is returned when a contact does not exist in the org
var ErrContactNotFound = errors.New("contact not found")

// Service provides contact operations
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a new contact service
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

const contactColumns = `id, org_id, name, email, phone, position, company, notes, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Position, &c.Company, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List retrieves all contacts of an organization, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Contact, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE org_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var result []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Email, &c.Phone, &c.Position, &c.Company, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		result = append(result, c)
	}

	return result, rows.Err()
}

// GetByID retrieves a single contact within an organization.
func (s *Service) GetByID(ctx context.Context, orgID, contactID uuid.UUID) (*Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE id = $1 AND org_id = $2
	`, contactID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// CreateParams carries the fields for a new contact. Name is required.
type CreateParams struct {
	Name     string
	Email    string
	Phone    string
	Position string
	Company  string
	Notes    string
}

// Create inserts a new contact in the organization.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, params CreateParams) (*Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx, `
		INSERT INTO contacts (org_id, name, email, phone, position, company, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+contactColumns+`
	`, orgID, params.Name, params.Email, params.Phone, params.Position, params.Company, params.Notes))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

// UpdateParams carries partial changes to a contact. Nil fields are untouched.
type UpdateParams struct {
	Name     *string
	Email    *string
	Phone    *string
	Position *string
	Company  *string
	Notes    *string
}

// Update applies partial changes to a contact.
func (s *Service) Update(ctx context.Context, orgID, contactID uuid.UUID, params UpdateParams) (*Contact, error) {
	c, err := scanContact(s.pool.QueryRow(ctx, `
		UPDATE contacts
		SET name = COALESCE($3, name),
		    email = COALESCE($4, email),
		    phone = COALESCE($5, phone),
		    position = COALESCE($6, position),
		    company = COALESCE($7, company),
		    notes = COALESCE($8, notes),
		    updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING `+contactColumns+`
	`, contactID, orgID, params.Name, params.Email, params.Phone, params.Position, params.Company, params.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return c, nil
}

// Delete removes a contact from the organization.
func (s *Service) Delete(ctx context.Context, orgID, contactID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM contacts WHERE id = $1 AND org_id = $2
	`, contactID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrContactNotFound
	}
	return nil
}
