package note

// Access gate: every read, write, collaborator-management and sharing
// operation passes through exactly one of these predicates. They resolve the
// role fresh each time; a collaborator's role can change while a session is
// open, so nothing here may be cached on a connection.

func requireRole(n *Note, userID string, min Role) error {
	actual := ResolveRole(n, userID)
	if actual.Covers(min) {
		return nil
	}
	return &PermissionError{Required: min, Actual: actual}
}

// RequireOwner passes only for the note's owner.
func RequireOwner(n *Note, userID string) error {
	return requireRole(n, userID, RoleOwner)
}

// RequireEditor passes for owner or editor.
func RequireEditor(n *Note, userID string) error {
	return requireRole(n, userID, RoleEditor)
}

// RequireViewer passes for any resolved role except none.
func RequireViewer(n *Note, userID string) error {
	return requireRole(n, userID, RoleViewer)
}
