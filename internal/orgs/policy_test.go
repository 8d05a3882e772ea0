package orgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicy_ReadRequiresOnlyMembership(t *testing.T) {
	for _, role := range []Role{RoleOwner, RoleModerator, RoleMember} {
		require.True(t, Allowed(role, ActionResourceRead), "role %s", role)
	}
}

func TestPolicy_CreateUpdateAllowOwnerAndModerator(t *testing.T) {
	for _, action := range []Action{ActionResourceCreate, ActionResourceUpdate, ActionMemberAdd} {
		require.True(t, Allowed(RoleOwner, action))
		require.True(t, Allowed(RoleModerator, action))
		require.False(t, Allowed(RoleMember, action))
	}
}

func TestPolicy_DeleteRequiresExactlyOwner(t *testing.T) {
	for _, action := range []Action{ActionResourceDelete, ActionMemberManage} {
		require.True(t, Allowed(RoleOwner, action))
		require.False(t, Allowed(RoleModerator, action))
		require.False(t, Allowed(RoleMember, action))
	}
}

func TestPolicy_UnknownRoleDenied(t *testing.T) {
	require.False(t, Allowed(Role("ADMIN"), ActionResourceRead))
	require.False(t, Allowed(Role(""), ActionResourceDelete))
}

func TestRole_IsValid(t *testing.T) {
	require.True(t, RoleOwner.IsValid())
	require.True(t, RoleModerator.IsValid())
	require.True(t, RoleMember.IsValid())
	require.False(t, Role("ADMIN").IsValid())
	require.False(t, Role("owner").IsValid())
}
