package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/notify"
)

var (
	// ErrTaskNotFound is returned when a task does not exist in the org
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidStatus is returned for an unknown status value
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned for an unknown priority value
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrAssigneeNotMember is returned when the assignee is not an org member
	ErrAssigneeNotMember = errors.New("assignee is not a member of the organization")
)

// Service provides task operations. Assignment changes emit notifications
// through the notifier.
type Service struct {
	pool     *pgxpool.Pool
	notifier *notify.Service
}

// NewService creates a new task service
func NewService(pool *pgxpool.Pool, notifier *notify.Service) *Service {
	return &Service{pool: pool, notifier: notifier}
}

// CreatedMessage is the notification text sent to the assignee of a task
// that was created already assigned to them.
func CreatedMessage(title string) string {
	return fmt.Sprintf("You have been assigned a new task: %q.", title)
}

// AssignedMessage is the notification text sent when an existing task is
// assigned or reassigned.
func AssignedMessage(title string) string {
	return fmt.Sprintf("You have been assigned a task: %q.", title)
}

// UnassignedMessage is the notification text sent to a removed assignee.
func UnassignedMessage(title string) string {
	return fmt.Sprintf("Your task %q has been unassigned.", title)
}

const taskColumns = `id, org_id, title, description, status, priority, assigned_to_id, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.OrgID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.AssignedToID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List retrieves all tasks of an organization, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE org_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.AssignedToID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		result = append(result, t)
	}

	return result, rows.Err()
}

// GetByID retrieves a single task within an organization.
func (s *Service) GetByID(ctx context.Context, orgID, taskID uuid.UUID) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND org_id = $2
	`, taskID, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// CreateParams carries the fields for a new task.
type CreateParams struct {
	Title        string
	Description  string
	Status       Status
	Priority     Priority
	AssignedToID *uuid.UUID
}

// Create inserts a new task. A non-nil assignee must be an org member and
// receives an assignment notification.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, params CreateParams) (*Task, error) {
	if params.Status == "" {
		params.Status = StatusPending
	}
	if params.Priority == "" {
		params.Priority = PriorityMedium
	}
	if !params.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if !params.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}
	if params.AssignedToID != nil {
		if err := s.checkAssignee(ctx, orgID, *params.AssignedToID); err != nil {
			return nil, err
		}
	}

	t, err := scanTask(s.pool.QueryRow(ctx, `
		INSERT INTO tasks (org_id, title, description, status, priority, assigned_to_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+taskColumns+`
	`, orgID, params.Title, params.Description, params.Status, params.Priority, params.AssignedToID))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if t.AssignedToID != nil {
		if err := s.notifier.Notify(ctx, *t.AssignedToID, CreatedMessage(t.Title)); err != nil {
			log.Error().Err(err).Stringer("user_id", *t.AssignedToID).Msg("Failed to send assignment notification")
		}
	}

	return t, nil
}

// UpdateParams carries partial changes to a task. Nil fields are untouched.
// SetAssignee distinguishes "leave the assignee alone" from "set it to
// AssignedToID", which may itself be nil to unassign.
type UpdateParams struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	SetAssignee  bool
	AssignedToID *uuid.UUID
}

// Update applies partial changes to a task. Notifications fire only when the
// assignee actually changes: the new assignee is told about the assignment,
// and the previous assignee is told when the task becomes unassigned.
func (s *Service) Update(ctx context.Context, orgID, taskID uuid.UUID, params UpdateParams) (*Task, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if params.Priority != nil && !params.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}
	if params.SetAssignee && params.AssignedToID != nil {
		if err := s.checkAssignee(ctx, orgID, *params.AssignedToID); err != nil {
			return nil, err
		}
	}

	current, err := s.GetByID(ctx, orgID, taskID)
	if err != nil {
		return nil, err
	}

	newAssignee := current.AssignedToID
	if params.SetAssignee {
		newAssignee = params.AssignedToID
	}

	t, err := scanTask(s.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    status = COALESCE($5, status),
		    priority = COALESCE($6, priority),
		    assigned_to_id = $7,
		    updated_at = NOW()
		WHERE id = $1 AND org_id = $2
		RETURNING `+taskColumns+`
	`, taskID, orgID, params.Title, params.Description, params.Status, params.Priority, newAssignee))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if params.SetAssignee {
		s.notifyAssignmentChange(ctx, current.AssignedToID, t.AssignedToID, t.Title)
	}

	return t, nil
}

// Assign sets the task's assignee to the given org member.
func (s *Service) Assign(ctx context.Context, orgID, taskID, userID uuid.UUID) (*Task, error) {
	return s.Update(ctx, orgID, taskID, UpdateParams{SetAssignee: true, AssignedToID: &userID})
}

// Unassign clears the task's assignee.
func (s *Service) Unassign(ctx context.Context, orgID, taskID uuid.UUID) (*Task, error) {
	return s.Update(ctx, orgID, taskID, UpdateParams{SetAssignee: true, AssignedToID: nil})
}

// Delete removes a task from the organization.
func (s *Service) Delete(ctx context.Context, orgID, taskID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM tasks WHERE id = $1 AND org_id = $2
	`, taskID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *Service) checkAssignee(ctx context.Context, orgID, userID uuid.UUID) error {
	var isMember bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM org_memberships WHERE org_id = $1 AND user_id = $2
		)
	`, orgID, userID).Scan(&isMember)
	if err != nil {
		return fmt.Errorf("failed to check assignee membership: %w", err)
	}
	if !isMember {
		return ErrAssigneeNotMember
	}
	return nil
}

// notifyAssignmentChange fires the right notifications for an assignee
// transition. No-op when the assignee did not change.
func (s *Service) notifyAssignmentChange(ctx context.Context, prev, next *uuid.UUID, title string) {
	if prev != nil && next != nil && *prev == *next {
		return
	}
	if next != nil {
		s.notifyAssigned(ctx, *next, title)
		return
	}
	if prev != nil {
		if err := s.notifier.Notify(ctx, *prev, UnassignedMessage(title)); err != nil {
			log.Error().Err(err).Stringer("user_id", *prev).Msg("Failed to send unassignment notification")
		}
	}
}

func (s *Service) notifyAssigned(ctx context.Context, userID uuid.UUID, title string) {
	if err := s.notifier.Notify(ctx, userID, AssignedMessage(title)); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("Failed to send assignment notification")
	}
}
