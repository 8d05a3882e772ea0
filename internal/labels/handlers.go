package labels

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
	"github.com/teamhubhq/teamhub/internal/orgs"
	"github.com/teamhubhq/teamhub/internal/validation"
)

type CreateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HandleList handles GET /api/v1/orgs/{org_id}/labels
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

		result, err := NewService(pool).List(ctx, orgID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list labels")
			apperrors.WriteInternalError(w, r, "Failed to list labels")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"labels": result,
		})
	}
}

// HandleCreate handles POST /api/v1/orgs/{org_id}/labels
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
			apperrors.WriteBadRequest(w, r, "Label name is required")
			return
		}
		if req.Color == "" {
			req.Color = "#808080"
		}
		if err := validation.ValidateColor(req.Color); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
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

		label, err := NewService(pool).Create(ctx, orgID, req.Name, req.Color)
		if err != nil {
			if errors.Is(err, ErrNameConflict) {
				apperrors.WriteConflict(w, r, "Label name already exists")
				return
			}
			log.Error().Err(err).Msg("Failed to create label")
			apperrors.WriteInternalError(w, r, "Failed to create label")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"label": label,
		})
	}
}

// HandleDelete handles DELETE /api/v1/orgs/{org_id}/labels/{label_id}
func HandleDelete(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		labelID, err := uuid.Parse(chi.URLParam(r, "label_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid label ID")
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

		if err := NewService(pool).Delete(ctx, orgID, labelID); err != nil {
			if errors.Is(err, ErrLabelNotFound) {
				apperrors.WriteNotFound(w, r, "Label not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete label")
			apperrors.WriteInternalError(w, r, "Failed to delete label")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
