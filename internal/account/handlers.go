// Package account exposes the authenticated user's own profile endpoints.
package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/apperrors"
	"github.com/teamhubhq/teamhub/internal/audit"
	"github.com/teamhubhq/teamhub/internal/auth"
	"github.com/teamhubhq/teamhub/internal/validation"
)

type UpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// HandleGet handles GET /api/v1/account
func HandleGet(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var resp userResponse
		err := pool.QueryRow(ctx, `
			SELECT id, username, email FROM users WHERE id = $1
		`, userID).Scan(&resp.ID, &resp.Username, &resp.Email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Session refers to a deleted account
				auth.ClearSessionCookie(w)
				apperrors.WriteUnauthorized(w, r, "Account no longer exists")
				return
			}
			log.Error().Err(err).Msg("Failed to load account")
			apperrors.WriteInternalError(w, r, "Failed to load account")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": resp,
		})
	}
}

// HandleUpdate handles PUT /api/v1/account
func HandleUpdate(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Username = validation.NormalizeUsername(req.Username)
		req.Email = strings.TrimSpace(req.Email)
		if req.Username == "" || req.Email == "" {
			apperrors.WriteBadRequest(w, r, "All fields are required")
			return
		}
		if err := validation.ValidateUsername(req.Username); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if err := validation.ValidateEmail(req.Email); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		_, err := pool.Exec(ctx, `
			UPDATE users SET username = $2, email = $3, updated_at = NOW()
			WHERE id = $1
		`, userID, req.Username, req.Email)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
				apperrors.WriteConflict(w, r, "Username or email already in use")
				return
			}
			log.Error().Err(err).Msg("Failed to update account")
			apperrors.WriteInternalError(w, r, "Failed to update account")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": userResponse{
				ID:       userID,
				Username: req.Username,
				Email:    req.Email,
			},
		})
	}
}

// HandleDelete handles DELETE /api/v1/account.
// Owned organizations and their contents are removed by FK cascades.
func HandleDelete(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		tag, err := pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to delete account")
			apperrors.WriteInternalError(w, r, "Failed to delete account")
			return
		}
		if tag.RowsAffected() == 0 {
			apperrors.WriteNotFound(w, r, "Account not found")
			return
		}

		if err := auditor.Log(ctx, audit.LogParams{
			Action: audit.EventUserDeleted,
			Meta:   map[string]interface{}{"user_id": userID.String()},
		}); err != nil {
			log.Error().Err(err).Msg("Failed to log audit event")
		}

		auth.ClearSessionCookie(w)

		log.Info().Str("user_id", userID.String()).Msg("Account deleted")

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
