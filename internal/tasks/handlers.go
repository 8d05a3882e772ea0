package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/apperrors"
	"github.com/teamhubhq/teamhub/internal/auth"
	"github.com/teamhubhq/teamhub/internal/notify"
	"github.com/teamhubhq/teamhub/internal/orgs"
)

type CreateRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Status       Status     `json:"status"`
	Priority     Priority   `json:"priority"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
}

type UpdateRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Status       *Status    `json:"status"`
	Priority     *Priority  `json:"priority"`
	AssignedToID *uuid.UUID `json:"assigned_to_id"`
}

type AssignRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func taskIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "task_id"))
}

func newService(pool *pgxpool.Pool) *Service {
	return NewService(pool, notify.NewService(pool))
}

func writeTaskError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		apperrors.WriteNotFound(w, r, "Task not found")
		return true
	case errors.Is(err, ErrInvalidStatus):
		apperrors.WriteBadRequest(w, r, "Invalid task status")
		return true
	case errors.Is(err, ErrInvalidPriority):
		apperrors.WriteBadRequest(w, r, "Invalid task priority")
		return true
	case errors.Is(err, ErrAssigneeNotMember):
		apperrors.WriteBadRequest(w, r, "Assignee is not a member of the organization")
		return true
	}
	return false
}

// HandleList handles GET /api/v1/orgs/{org_id}/tasks
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceRead); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		result, err := newService(pool).List(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list tasks")
			apperrors.WriteInternalError(w, r, "Failed to list tasks")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"tasks": result,
		})
	}
}

// HandleCreate handles POST /api/v1/orgs/{org_id}/tasks
func HandleCreate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		if req.Title == "" {
			apperrors.WriteBadRequest(w, r, "Task title is required")
			return
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceCreate); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		task, err := newService(pool).Create(ctx, orgID, CreateParams{
			Title:        req.Title,
			Description:  req.Description,
			Status:       req.Status,
			Priority:     req.Priority,
			AssignedToID: req.AssignedToID,
		})
		if err != nil {
			if writeTaskError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to create task")
			apperrors.WriteInternalError(w, r, "Failed to create task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"task": task,
		})
	}
}

// HandleGet handles GET /api/v1/orgs/{org_id}/tasks/{task_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		taskID, err := taskIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid task ID")
			return
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceRead); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		task, err := newService(pool).GetByID(ctx, orgID, taskID)
		if err != nil {
			if writeTaskError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to get task")
			apperrors.WriteInternalError(w, r, "Failed to get task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"task": task,
		})
	}
}

// HandleUpdate handles PATCH /api/v1/orgs/{org_id}/tasks/{task_id}
//
// The assignee only changes when the request body carries the
// assigned_to_id key, so a status-only patch never clears it.
func HandleUpdate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		taskID, err := taskIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid task ID")
			return
		}

		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		var req UpdateRequest
		for key, value := range raw {
			var dst any
			switch key {
			case "title":
				dst = &req.Title
			case "description":
				dst = &req.Description
			case "status":
				dst = &req.Status
			case "priority":
				dst = &req.Priority
			case "assigned_to_id":
				dst = &req.AssignedToID
			default:
				continue
			}
			if err := json.Unmarshal(value, dst); err != nil {
				apperrors.WriteBadRequest(w, r, "Invalid request body")
				return
			}
		}
		_, setAssignee := raw["assigned_to_id"]

		if req.Title != nil {
			trimmed := strings.TrimSpace(*req.Title)
			if trimmed == "" {
				apperrors.WriteBadRequest(w, r, "Task title cannot be empty")
				return
			}
			req.Title = &trimmed
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceUpdate); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		task, err := newService(pool).Update(ctx, orgID, taskID, UpdateParams{
			Title:        req.Title,
			Description:  req.Description,
			Status:       req.Status,
			Priority:     req.Priority,
			SetAssignee:  setAssignee,
			AssignedToID: req.AssignedToID,
		})
		if err != nil {
			if writeTaskError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to update task")
			apperrors.WriteInternalError(w, r, "Failed to update task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"task": task,
		})
	}
}

// HandleAssign handles POST /api/v1/orgs/{org_id}/tasks/{task_id}/assign
func HandleAssign(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		taskID, err := taskIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid task ID")
			return
		}

		var req AssignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == uuid.Nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceUpdate); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		task, err := newService(pool).Assign(ctx, orgID, taskID, req.UserID)
		if err != nil {
			if writeTaskError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to assign task")
			apperrors.WriteInternalError(w, r, "Failed to assign task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"task": task,
		})
	}
}

// HandleUnassign handles POST /api/v1/orgs/{org_id}/tasks/{task_id}/unassign
func HandleUnassign(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		taskID, err := taskIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid task ID")
			return
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceUpdate); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		task, err := newService(pool).Unassign(ctx, orgID, taskID)
		if err != nil {
			if writeTaskError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to unassign task")
			apperrors.WriteInternalError(w, r, "Failed to unassign task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"task": task,
		})
	}
}

// HandleDelete handles DELETE /api/v1/orgs/{org_id}/tasks/{task_id}
func HandleDelete(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		taskID, err := taskIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid task ID")
			return
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceDelete); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		if err := newService(pool).Delete(ctx, orgID, taskID); err != nil {
			if writeTaskError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to delete task")
			apperrors.WriteInternalError(w, r, "Failed to delete task")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
