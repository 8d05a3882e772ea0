package chatrooms

import (
	"time"

	"github.com/google/uuid"
)

// Chatroom represents a chatroom within an organization
type Chatroom struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrgID       uuid.UUID `db:"org_id" json:"org_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AccessRules are the direct-user and label grants attached to a chatroom.
// A room with no rules at all is open to every organization member.
type AccessRules struct {
	UserIDs  []uuid.UUID `json:"user_ids"`
	LabelIDs []uuid.UUID `json:"label_ids"`
}

// VisibleMember is a user allowed to see a chatroom, with their org role.
type VisibleMember struct {
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
	Role     string    `db:"role" json:"role"`
}
