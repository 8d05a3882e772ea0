// Package audit writes append-only audit log entries for security-relevant
// events.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	EventUserRegistered       = "user.registered"
	EventUserDeleted          = "user.deleted"
	EventLoginFailed          = "auth.login_failed"
	EventOrgCreated           = "org.created"
	EventOrgMemberAdded       = "org.member_added"
	EventOrgMemberRoleUpdated = "org.member_role_updated"
	EventOrgMemberRemoved     = "org.member_removed"
	EventChatroomDeleted      = "chatroom.deleted"
)

// Writer provides methods to write audit log entries.
type Writer struct {
	pool *pgxpool.Pool
}

func NewWriter(pool *pgxpool.Pool) *Writer {
	return &Writer{pool: pool}
}

// LogParams contains parameters for logging an audit event.
type LogParams struct {
	OrgID       *uuid.UUID
	ActorUserID *uuid.UUID
	Action      string
	Meta        map[string]interface{}
}

func (w *Writer) Log(ctx context.Context, params LogParams) error {
	metaJSON := []byte("{}")
	if params.Meta != nil {
		b, err := json.Marshal(params.Meta)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal audit meta")
			return err
		}
		metaJSON = b
	}

	query := `
		INSERT INTO audit_log (org_id, actor_user_id, action, meta)
		VALUES ($1, $2, $3, $4)
	`

	_, err := w.pool.Exec(ctx, query, toNullUUID(params.OrgID), toNullUUID(params.ActorUserID), params.Action, metaJSON)
	return err
}

// LogUserRegistered records a successful registration.
func (w *Writer) LogUserRegistered(ctx context.Context, userID uuid.UUID, email string) error {
	return w.Log(ctx, LogParams{
		ActorUserID: &userID,
		Action:      EventUserRegistered,
		Meta:        map[string]interface{}{"email": email},
	})
}

// LogLoginFailed records a failed login attempt for the given username.
// No actor is recorded since the attempt was not authenticated.
func (w *Writer) LogLoginFailed(ctx context.Context, username string) error {
	return w.Log(ctx, LogParams{
		Action: EventLoginFailed,
		Meta:   map[string]interface{}{"username": username},
	})
}

// LogOrgCreated records organization creation.
func (w *Writer) LogOrgCreated(ctx context.Context, orgID, actorUserID uuid.UUID, name string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgCreated,
		Meta:        map[string]interface{}{"name": name},
	})
}

// LogOrgMemberAdded records a new membership.
func (w *Writer) LogOrgMemberAdded(ctx context.Context, orgID, actorUserID, memberUserID uuid.UUID, role string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgMemberAdded,
		Meta:        map[string]interface{}{"member_user_id": memberUserID.String(), "role": role},
	})
}

// LogOrgMemberRoleUpdated records a role change.
func (w *Writer) LogOrgMemberRoleUpdated(ctx context.Context, orgID, actorUserID, memberUserID uuid.UUID, prevRole, newRole string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgMemberRoleUpdated,
		Meta: map[string]interface{}{
			"member_user_id": memberUserID.String(),
			"previous_role":  prevRole,
			"new_role":       newRole,
		},
	})
}

// LogOrgMemberRemoved records a membership removal.
func (w *Writer) LogOrgMemberRemoved(ctx context.Context, orgID, actorUserID, memberUserID uuid.UUID, role string) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventOrgMemberRemoved,
		Meta:        map[string]interface{}{"member_user_id": memberUserID.String(), "role": role},
	})
}

// LogChatroomDeleted records chatroom deletion.
func (w *Writer) LogChatroomDeleted(ctx context.Context, orgID, actorUserID, chatroomID uuid.UUID) error {
	return w.Log(ctx, LogParams{
		OrgID:       &orgID,
		ActorUserID: &actorUserID,
		Action:      EventChatroomDeleted,
		Meta:        map[string]interface{}{"chatroom_id": chatroomID.String()},
	})
}

func toNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
