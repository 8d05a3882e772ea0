package orgs

// Action is an authorization-relevant operation on organization-scoped
// resources. Every handler authorizes through the policy table below rather
// than comparing role strings inline.
type Action string

const (
	// ActionResourceRead covers listing and fetching org-scoped resources
	// (chatrooms, contacts, tasks, labels, members).
	ActionResourceRead Action = "resource.read"

	// ActionResourceCreate covers creating org-scoped resources.
	ActionResourceCreate Action = "resource.create"

	// ActionResourceUpdate covers updating org-scoped resources.
	ActionResourceUpdate Action = "resource.update"

	// ActionResourceDelete covers deleting org-scoped resources.
	ActionResourceDelete Action = "resource.delete"

	// ActionMemberAdd covers adding a member to the organization.
	ActionMemberAdd Action = "member.add"

	// ActionMemberManage covers role changes and member removal.
	ActionMemberManage Action = "member.manage"
)

// policy maps each action to the exact set of roles allowed to perform it.
// Roles are deliberately NOT hierarchical: MODERATOR cannot delete even
// though OWNER can both delete and update.
var policy = map[Action]map[Role]bool{
	ActionResourceRead: {
		RoleOwner:     true,
		RoleModerator: true,
		RoleMember:    true,
	},
	ActionResourceCreate: {
		RoleOwner:     true,
		RoleModerator: true,
	},
	ActionResourceUpdate: {
		RoleOwner:     true,
		RoleModerator: true,
	},
	ActionResourceDelete: {
		RoleOwner: true,
	},
	ActionMemberAdd: {
		RoleOwner:     true,
		RoleModerator: true,
	},
	ActionMemberManage: {
		RoleOwner: true,
	},
}

// Allowed reports whether the given role may perform the action.
func Allowed(role Role, action Action) bool {
	return policy[action][role]
}
