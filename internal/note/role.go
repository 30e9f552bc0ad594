package note

// Role is an identity's permission level on a note.
// Total order: none < viewer < editor < owner.
type Role string

const (
	RoleNone   Role = "none"
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleOwner  Role = "owner"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleEditor:
		return 2
	case RoleOwner:
		return 3
	}
	return 0
}

// Covers reports whether r satisfies the given minimum role.
func (r Role) Covers(min Role) bool {
	return r.rank() >= min.rank()
}

// ParseCollaboratorRole validates a role supplied by a client. Only viewer and
// editor may be assigned to a collaborator; owner is implied by ownership.
func ParseCollaboratorRole(s string) (Role, error) {
	switch Role(s) {
	case RoleViewer:
		return RoleViewer, nil
	case RoleEditor:
		return RoleEditor, nil
	}
	return RoleNone, &ValidationError{Field: "role", Reason: "must be 'viewer' or 'editor'"}
}

// ResolveRole computes the caller's role on a note. Owner wins outright,
// otherwise the stored collaborator role applies; roles never combine.
// Pure and side-effect free: callers resolve fresh on every authorization
// decision, never caching the result on a connection.
func ResolveRole(n *Note, userID string) Role {
	if n.Owner.ID == userID {
		return RoleOwner
	}
	if c := n.Collaborator(userID); c != nil {
		return c.Role
	}
	return RoleNone
}
