package chatrooms

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
	"github.com/teamhubhq/teamhub/internal/orgs"
)

type CreateRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Access      *AccessRules `json:"access"`
}

type UpdateRequest struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Access      *AccessRules `json:"access"`
}

// ChatroomIDParam extracts the chatroom id from the request path.
func ChatroomIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "chatroom_id"))
}

func writeRuleError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, ErrUserNotMember):
		apperrors.WriteBadRequest(w, r, "User is not a member of the organization")
		return true
	case errors.Is(err, ErrLabelNotFound):
		apperrors.WriteBadRequest(w, r, "Label not found")
		return true
	}
	return false
}

// HandleList handles GET /api/v1/orgs/{org_id}/chatrooms
//
// Only chatrooms visible to the requesting user are returned.
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

		result, err := NewService(pool).ListVisible(ctx, orgID, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list chatrooms")
			apperrors.WriteInternalError(w, r, "Failed to list chatrooms")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"chatrooms": result,
		})
	}
}

// HandleCreate handles POST /api/v1/orgs/{org_id}/chatrooms
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
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			apperrors.WriteBadRequest(w, r, "Chatroom name is required")
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

		rules := AccessRules{}
		if req.Access != nil {
			rules = *req.Access
		}

		room, err := NewService(pool).Create(ctx, orgID, req.Name, req.Description, rules)
		if err != nil {
			if writeRuleError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to create chatroom")
			apperrors.WriteInternalError(w, r, "Failed to create chatroom")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"chatroom": room,
		})
	}
}

// HandleGet handles GET /api/v1/orgs/{org_id}/chatrooms/{chatroom_id}
//
// A room outside the caller's visible set is indistinguishable from a
// missing one.
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		chatroomID, err := ChatroomIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid chatroom ID")
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

		svc := NewService(pool)
		room, err := svc.GetVisible(ctx, orgID, chatroomID, userID)
		if err != nil {
			if errors.Is(err, ErrChatroomNotFound) {
				apperrors.WriteNotFound(w, r, "Chatroom not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get chatroom")
			apperrors.WriteInternalError(w, r, "Failed to get chatroom")
			return
		}

		rules, err := svc.GetAccessRules(ctx, room.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to get access rules")
			apperrors.WriteInternalError(w, r, "Failed to get chatroom")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"chatroom": room,
			"access":   rules,
		})
	}
}

// HandleUpdate handles PATCH /api/v1/orgs/{org_id}/chatrooms/{chatroom_id}
func HandleUpdate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		chatroomID, err := ChatroomIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid chatroom ID")
			return
		}

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if req.Name != nil {
			trimmed := strings.TrimSpace(*req.Name)
			if trimmed == "" {
				apperrors.WriteBadRequest(w, r, "Chatroom name cannot be empty")
				return
			}
			req.Name = &trimmed
		}

		if _, err := orgs.NewService(pool).Authorize(ctx, userID, orgID, orgs.ActionResourceUpdate); err != nil {
			if orgs.WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to check permissions")
			apperrors.WriteInternalError(w, r, "Failed to check permissions")
			return
		}

		room, err := NewService(pool).Update(ctx, orgID, chatroomID, UpdateParams{
			Name:        req.Name,
			Description: req.Description,
			Rules:       req.Access,
		})
		if err != nil {
			if errors.Is(err, ErrChatroomNotFound) {
				apperrors.WriteNotFound(w, r, "Chatroom not found")
				return
			}
			if writeRuleError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to update chatroom")
			apperrors.WriteInternalError(w, r, "Failed to update chatroom")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"chatroom": room,
		})
	}
}

// HandleDelete handles DELETE /api/v1/orgs/{org_id}/chatrooms/{chatroom_id}
func HandleDelete(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		chatroomID, err := ChatroomIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid chatroom ID")
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

		if err := NewService(pool).Delete(ctx, orgID, chatroomID); err != nil {
			if errors.Is(err, ErrChatroomNotFound) {
				apperrors.WriteNotFound(w, r, "Chatroom not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete chatroom")
			apperrors.WriteInternalError(w, r, "Failed to delete chatroom")
			return
		}

		auditor.LogChatroomDeleted(ctx, orgID, userID, chatroomID)

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}

// HandleMembers handles GET /api/v1/orgs/{org_id}/chatrooms/{chatroom_id}/members
//
// Returns the resolved visible-member set of the room.
func HandleMembers(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		chatroomID, err := ChatroomIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid chatroom ID")
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

		svc := NewService(pool)
		room, err := svc.GetVisible(ctx, orgID, chatroomID, userID)
		if err != nil {
			if errors.Is(err, ErrChatroomNotFound) {
				apperrors.WriteNotFound(w, r, "Chatroom not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get chatroom")
			apperrors.WriteInternalError(w, r, "Failed to get chatroom")
			return
		}

		members, err := svc.ResolveVisibleMembers(ctx, room)
		if err != nil {
			log.Error().Err(err).Msg("Failed to resolve chatroom members")
			apperrors.WriteInternalError(w, r, "Failed to resolve chatroom members")
			return
		}
		if members == nil {
			members = []VisibleMember{}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"members": members,
		})
	}
}
