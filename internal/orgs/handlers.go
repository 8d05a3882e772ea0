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

// CreateRequest represents the request to create an organization
type CreateRequest struct {
	Name string `json:"name"`
}

type OrgResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt string    `json:"created_at"`
}

type OrgListItemResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID uuid.UUID `json:"owner_id"`
	Role    Role      `json:"role"`
}

// OrgIDParam parses the {org_id} URL parameter.
func OrgIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "org_id"))
}

// WriteAuthzError maps authorization failures to HTTP responses and reports
// whether err was handled. A missing membership and an insufficient role are
// the same class of failure (403) so outsiders cannot distinguish orgs they
// were never invited to.
func WriteAuthzError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case errors.Is(err, ErrNotMember), errors.Is(err, ErrInsufficientRole):
		apperrors.WriteForbidden(w, r, "Insufficient permissions")
		return true
	case errors.Is(err, ErrOrgNotFound):
		apperrors.WriteNotFound(w, r, "Organization not found")
		return true
	}
	return false
}

// HandleCreate handles POST /api/v1/orgs
func HandleCreate(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			apperrors.WriteBadRequest(w, r, "Organization name is required")
			return
		}

		service := NewService(pool)
		org, err := service.CreateWithOwner(ctx, req.Name, userID)
		if err != nil {
			if errors.Is(err, ErrNameConflict) {
				apperrors.WriteConflict(w, r, "Organization name already exists")
				return
			}
			log.Error().Err(err).Msg("Failed to create organization")
			apperrors.WriteInternalError(w, r, "Failed to create organization")
			return
		}

		if err := auditor.LogOrgCreated(ctx, org.ID, userID, org.Name); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
			// Continue - don't fail the request
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"org": OrgResponse{
				ID:        org.ID,
				Name:      org.Name,
				OwnerID:   org.OwnerID,
				CreatedAt: org.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			},
		})
	}
}

// HandleList handles GET /api/v1/orgs
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		service := NewService(pool)
		userOrgs, err := service.ListUserOrgs(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list organizations")
			apperrors.WriteInternalError(w, r, "Failed to list organizations")
			return
		}

		resp := make([]OrgListItemResponse, len(userOrgs))
		for i, org := range userOrgs {
			resp[i] = OrgListItemResponse{
				ID:      org.ID,
				Name:    org.Name,
				OwnerID: org.OwnerID,
				Role:    org.Role,
			}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"orgs": resp,
		})
	}
}

// HandleGet handles GET /api/v1/orgs/{org_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
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

		org, err := service.GetByID(ctx, orgID)
		if err != nil {
			if errors.Is(err, ErrOrgNotFound) {
				apperrors.WriteNotFound(w, r, "Organization not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get organization")
			apperrors.WriteInternalError(w, r, "Failed to get organization")
			return
		}

		members, err := service.ListMembers(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list members")
			apperrors.WriteInternalError(w, r, "Failed to get organization")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"org": OrgResponse{
				ID:        org.ID,
				Name:      org.Name,
				OwnerID:   org.OwnerID,
				CreatedAt: org.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			},
			"members": members,
		})
	}
}

// HandleGetRole handles GET /api/v1/orgs/{org_id}/role
func HandleGetRole(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		service := NewService(pool)
		role, err := service.GetUserRole(ctx, userID, orgID)
		if err != nil {
			if WriteAuthzError(w, r, err) {
				return
			}
			log.Error().Err(err).Msg("Failed to get role")
			apperrors.WriteInternalError(w, r, "Failed to get role")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"role": role,
		})
	}
}

// HandleCheckMembership handles GET /api/v1/orgs/{org_id}/membership
func HandleCheckMembership(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		service := NewService(pool)
		_, err = service.GetUserRole(ctx, userID, orgID)
		if err != nil && !errors.Is(err, ErrNotMember) {
			log.Error().Err(err).Msg("Failed to check membership")
			apperrors.WriteInternalError(w, r, "Failed to check membership")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"is_member": err == nil,
		})
	}
}
