package contacts

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
)

type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
	Company  string `json:"company"`
	Notes    string `json:"notes"`
}

type UpdateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Position *string `json:"position"`
	Company  *string `json:"company"`
	Notes    *string `json:"notes"`
}

func contactIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "contact_id"))
}

// HandleList handles GET /api/v1/orgs/{org_id}/contacts
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
			log.Error().Err(err).Msg("Failed to list contacts")
			apperrors.WriteInternalError(w, r, "Failed to list contacts")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"contacts": result,
		})
	}
}

// HandleCreate handles POST /api/v1/orgs/{org_id}/contacts
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
			apperrors.WriteBadRequest(w, r, "Contact name is required")
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

		contact, err := NewService(pool).Create(ctx, orgID, CreateParams{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Position: req.Position,
			Company:  req.Company,
			Notes:    req.Notes,
		})
		if err != nil {
			log.Error().Err(err).Msg("Failed to create contact")
			apperrors.WriteInternalError(w, r, "Failed to create contact")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"contact": contact,
		})
	}
}

// HandleGet handles GET /api/v1/orgs/{org_id}/contacts/{contact_id}
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		contactID, err := contactIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid contact ID")
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

		contact, err := NewService(pool).GetByID(ctx, orgID, contactID)
		if err != nil {
			if errors.Is(err, ErrContactNotFound) {
				apperrors.WriteNotFound(w, r, "Contact not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get contact")
			apperrors.WriteInternalError(w, r, "Failed to get contact")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"contact": contact,
		})
	}
}

// HandleUpdate handles PATCH /api/v1/orgs/{org_id}/contacts/{contact_id}
func HandleUpdate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		contactID, err := contactIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid contact ID")
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
				apperrors.WriteBadRequest(w, r, "Contact name cannot be empty")
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

		contact, err := NewService(pool).Update(ctx, orgID, contactID, UpdateParams{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Position: req.Position,
			Company:  req.Company,
			Notes:    req.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrContactNotFound) {
				apperrors.WriteNotFound(w, r, "Contact not found")
				return
			}
			log.Error().Err(err).Msg("Failed to update contact")
			apperrors.WriteInternalError(w, r, "Failed to update contact")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"contact": contact,
		})
	}
}

// HandleDelete handles DELETE /api/v1/orgs/{org_id}/contacts/{contact_id}
func HandleDelete(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		contactID, err := contactIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid contact ID")
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

		if err := NewService(pool).Delete(ctx, orgID, contactID); err != nil {
			if errors.Is(err, ErrContactNotFound) {
				apperrors.WriteNotFound(w, r, "Contact not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete contact")
			apperrors.WriteInternalError(w, r, "Failed to delete contact")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
