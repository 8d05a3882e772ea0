package orgs

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user's role within an organization
type Role string

const (
	RoleOwner     Role = "OWNER"
	RoleModerator Role = "MODERATOR"
	RoleMember    Role = "MEMBER"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleModerator, RoleMember:
		return true
	}
	return false
}

// Org represents an organization in the system
type Org struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	OwnerID   uuid.UUID `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Membership represents a user's membership in an organization
type Membership struct {
	OrgID     uuid.UUID     `db:"org_id"`
	UserID    uuid.UUID     `db:"user_id"`
	Role      Role          `db:"role"`
	LabelID   uuid.NullUUID `db:"label_id"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

// OrgWithRole combines org information with the user's role
type OrgWithRole struct {
	Org
	Role Role `db:"role"`
}

// MemberInfo represents a member of an organization with their details
type MemberInfo struct {
	UserID   uuid.UUID  `db:"user_id" json:"user_id"`
	Username string     `db:"username" json:"username"`
	Email    string     `db:"email" json:"email"`
	Role     Role       `db:"role" json:"role"`
	LabelID  *uuid.UUID `db:"label_id" json:"label_id,omitempty"`
}
