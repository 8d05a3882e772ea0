package notify

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/apperrors"
	"github.com/teamhubhq/teamhub/internal/auth"
)

// HandleList handles GET /api/v1/notifications
func HandleList(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		result, err := NewService(pool).ListForUser(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list notifications")
			apperrors.WriteInternalError(w, r, "Failed to list notifications")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"notifications": result,
		})
	}
}

// HandleMarkAllRead handles PATCH /api/v1/notifications
func HandleMarkAllRead(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		updated, err := NewService(pool).MarkAllRead(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to mark notifications read")
			apperrors.WriteInternalError(w, r, "Failed to mark notifications read")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"updated": updated,
		})
	}
}

// HandleMarkRead handles PATCH /api/v1/notifications/{notification_id}
func HandleMarkRead(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		notificationID, err := uuid.Parse(chi.URLParam(r, "notification_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid notification ID")
			return
		}

		if err := NewService(pool).MarkRead(ctx, userID, notificationID); err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				apperrors.WriteNotFound(w, r, "Notification not found")
				return
			}
			log.Error().Err(err).Msg("Failed to mark notification read")
			apperrors.WriteInternalError(w, r, "Failed to mark notification read")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"read": true,
		})
	}
}

// HandleDelete handles DELETE /api/v1/notifications/{notification_id}
func HandleDelete(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		notificationID, err := uuid.Parse(chi.URLParam(r, "notification_id"))
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid notification ID")
			return
		}

		if err := NewService(pool).Delete(ctx, userID, notificationID); err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				apperrors.WriteNotFound(w, r, "Notification not found")
				return
			}
			log.Error().Err(err).Msg("Failed to delete notification")
			apperrors.WriteInternalError(w, r, "Failed to delete notification")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"deleted": true,
		})
	}
}
