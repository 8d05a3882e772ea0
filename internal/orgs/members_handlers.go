package orgs

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
	"github.com/teamhubhq/teamhub/internal/audit"
	"github.com/teamhubhq/teamhub/internal/auth"
)

type AddMemberRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type UpdateMemberRequest struct {
	Role    Role       `json:"role"`
	LabelID *uuid.UUID `json:"label_id"`
}

// HandleListMembers handles GET /api/v1/orgs/{org_id}/members
func HandleListMembers(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		service := NewService(pool)
		if _, err := service.Authorize(ctx, userID, orgID, ActionResourceRead); err != nil {
			if WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check org membership")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		members, err := service.ListMembers(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list members")
			apperrors.WriteInternalError(w, r, "Failed to list members")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"members": members,
		})
	}
}

// HandleAddMember handles POST /api/v1/orgs/{org_id}/members
func HandleAddMember(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorUserID := auth.GetUserID(ctx)

		orgID, err := OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		var req AddMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" {
			apperrors.WriteBadRequest(w, r, "Email is required")
			return
		}
		if !req.Role.IsValid() {
			apperrors.WriteBadRequest(w, r, "Invalid role")
			return
		}

		service := NewService(pool)
		if _, err := service.Authorize(ctx, actorUserID, orgID, ActionMemberAdd); err != nil {
			if WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		member, err := service.AddMemberByEmail(ctx, orgID, req.Email, req.Role)
		if err != nil {
			switch {
			case errors.Is(err, ErrUserNotFound):
				apperrors.WriteNotFound(w, r, "User not found")
			case errors.Is(err, ErrAlreadyMember):
				apperrors.WriteConflict(w, r, "User is already a member")
			case errors.Is(err, ErrInvalidRole):
				apperrors.WriteBadRequest(w, r, "Invalid role")
			default:
				log.Error().Err(err).Msg("Failed to add member")
				apperrors.WriteInternalError(w, r, "Failed to add member")
			}
			return
		}

		if err := auditor.LogOrgMemberAdded(ctx, orgID, actorUserID, member.UserID, string(member.Role)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"member": member,
		})
	}
}

// HandleUpdateMember handles PUT /api/v1/orgs/{org_id}/members/{user_id}
func HandleUpdateMember(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorUserID := auth.GetUserID(ctx)

		orgID, err := OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		targetUserID, err := uuid.Parse(chi.URLParam(r, "user_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid user ID")
			return
		}

		var req UpdateMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if !req.Role.IsValid() {
			apperrors.WriteBadRequest(w, r, "Invalid role")
			return
		}

		service := NewService(pool)
		if _, err := service.Authorize(ctx, actorUserID, orgID, ActionMemberManage); err != nil {
			if WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		prevRole, err := service.UpdateMember(ctx, orgID, targetUserID, req.Role, req.LabelID)
		if err != nil {
			switch {
			case errors.Is(err, ErrMemberNotFound):
				apperrors.WriteNotFound(w, r, "Member not found")
			case errors.Is(err, ErrLabelNotFound):
				apperrors.WriteNotFound(w, r, "Label not found")
			case errors.Is(err, ErrCannotDemoteLastOwner):
				apperrors.WriteConflict(w, r, "Cannot demote the last owner")
			case errors.Is(err, ErrInvalidRole):
				apperrors.WriteBadRequest(w, r, "Invalid role")
			default:
				log.Error().Err(err).Msg("Failed to update member")
				apperrors.WriteInternalError(w, r, "Failed to update member")
			}
			return
		}

		if err := auditor.LogOrgMemberRoleUpdated(ctx, orgID, actorUserID, targetUserID, string(prevRole), string(req.Role)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"updated": true,
			"role":    req.Role,
		})
	}
}

// HandleRemoveMember handles DELETE /api/v1/orgs/{org_id}/members/{user_id}
func HandleRemoveMember(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorUserID := auth.GetUserID(ctx)

		orgID, err := OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		targetUserID, err := uuid.Parse(chi.URLParam(r, "user_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid user ID")
			return
		}

		service := NewService(pool)
		if _, err := service.Authorize(ctx, actorUserID, orgID, ActionMemberManage); err != nil {
			if WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		removedRole, err := service.RemoveMember(ctx, orgID, targetUserID)
		if err != nil {
			switch {
			case errors.Is(err, ErrMemberNotFound):
				apperrors.WriteNotFound(w, r, "Member not found")
			case errors.Is(err, ErrCannotRemoveLastOwner):
				apperrors.WriteConflict(w, r, "Cannot remove the last owner")
			default:
				log.Error().Err(err).Msg("Failed to remove member")
				apperrors.WriteInternalError(w, r, "Failed to remove member")
			}
			return
		}

		if err := auditor.LogOrgMemberRemoved(ctx, orgID, actorUserID, targetUserID, string(removedRole)); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"removed": true,
		})
	}
}
