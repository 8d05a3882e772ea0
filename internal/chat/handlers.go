package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/apperrors"
	"github.com/teamhubhq/teamhub/internal/auth"
	"github.com/teamhubhq/teamhub/internal/chatrooms"
	"github.com/teamhubhq/teamhub/internal/notify"
	"github.com/teamhubhq/teamhub/internal/orgs"
)

type SendRequest struct {
	Content string `json:"content"`
}

func newService(pool *pgxpool.Pool, rdb *redis.Client) *Service {
	return NewService(pool, chatrooms.NewService(pool), notify.NewService(pool), NewPublisher(rdb))
}

// HandleHistory handles GET /api/v1/orgs/{org_id}/chatrooms/{chatroom_id}/messages
//
// Only visible members of the room may read its history.
func HandleHistory(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		chatroomID, err := chatrooms.ChatroomIDParam(r)
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

		room, err := chatrooms.NewService(pool).GetVisible(ctx, orgID, chatroomID, userID)
		if err != nil {
			if errors.Is(err, chatrooms.ErrChatroomNotFound) {
				apperrors.WriteNotFound(w, r, "Chatroom not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get chatroom")
			apperrors.WriteInternalError(w, r, "Failed to get chatroom")
			return
		}

		messages, err := newService(pool, rdb).History(ctx, room.ID)
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch message history")
			apperrors.WriteInternalError(w, r, "Failed to fetch message history")
			return
		}
		if messages == nil {
			messages = []Message{}
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"messages": messages,
		})
	}
}

// HandleSend handles POST /api/v1/orgs/{org_id}/chatrooms/{chatroom_id}/messages
func HandleSend(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := auth.GetUserID(ctx)

		orgID, err := orgs.OrgIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid organization ID")
			return
		}

		chatroomID, err := chatrooms.ChatroomIDParam(r)
		if err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid chatroom ID")
			return
		}

		var req SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			apperrors.WriteBadRequest(w, r, "Message content is required")
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

		room, err := chatrooms.NewService(pool).GetVisible(ctx, orgID, chatroomID, userID)
		if err != nil {
			if errors.Is(err, chatrooms.ErrChatroomNotFound) {
				apperrors.WriteNotFound(w, r, "Chatroom not found")
				return
			}
			log.Error().Err(err).Msg("Failed to get chatroom")
			apperrors.WriteInternalError(w, r, "Failed to get chatroom")
			return
		}

		msg, err := newService(pool, rdb).Send(ctx, room, userID, req.Content)
		if err != nil {
			log.Error().Err(err).Msg("Failed to send message")
			apperrors.WriteInternalError(w, r, "Failed to send message")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"message": msg,
		})
	}
}
