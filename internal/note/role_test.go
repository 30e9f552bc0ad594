package note

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleNote() *Note {
	return &Note{
		ID:    "n1",
		Title: "plan",
		Owner: UserRef{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		Collaborators: []Collaborator{
			{User: UserRef{ID: "bob", Name: "Bob", Email: "bob@example.com"}, Role: RoleViewer},
			{User: UserRef{ID: "carol", Name: "Carol", Email: "carol@example.com"}, Role: RoleEditor},
		},
	}
}

func TestResolveRole(t *testing.T) {
	n := sampleNote()

	require.Equal(t, RoleOwner, ResolveRole(n, "alice"))
	require.Equal(t, RoleViewer, ResolveRole(n, "bob"))
	require.Equal(t, RoleEditor, ResolveRole(n, "carol"))
	require.Equal(t, RoleNone, ResolveRole(n, "mallory"))

	// pure function: repeated calls with unchanged inputs agree
	for i := 0; i < 3; i++ {
		require.Equal(t, RoleViewer, ResolveRole(n, "bob"))
	}
}

func TestResolveRole_OwnerWinsOverCollaboratorEntry(t *testing.T) {
	// the invariant forbids this state, but the resolver's priority order
	// still has to hold: the owner check runs before the collaborator scan
	n := sampleNote()
	n.Collaborators = append(n.Collaborators, Collaborator{User: n.Owner, Role: RoleViewer})
	require.Equal(t, RoleOwner, ResolveRole(n, "alice"))
}

func TestRoleOrdering(t *testing.T) {
	require.True(t, RoleOwner.Covers(RoleEditor))
	require.True(t, RoleEditor.Covers(RoleViewer))
	require.True(t, RoleViewer.Covers(RoleViewer))
	require.False(t, RoleViewer.Covers(RoleEditor))
	require.False(t, RoleNone.Covers(RoleViewer))
}

func TestParseCollaboratorRole(t *testing.T) {
	r, err := ParseCollaboratorRole("editor")
	require.NoError(t, err)
	require.Equal(t, RoleEditor, r)

	r, err = ParseCollaboratorRole("viewer")
	require.NoError(t, err)
	require.Equal(t, RoleViewer, r)

	for _, bad := range []string{"owner", "none", "", "admin"} {
		_, err := ParseCollaboratorRole(bad)
		require.Error(t, err, "role %q should be rejected", bad)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
	}
}
