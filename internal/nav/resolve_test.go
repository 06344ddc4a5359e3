package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina/internal/identity"
)

func TestResolveEveryRole(t *testing.T) {
	for _, role := range identity.AllRoles {
		portal := Resolve(role)
		require.NotEmpty(t, portal.Title, "role %s must have a portal title", role)
		require.NotEmpty(t, portal.Entries, "role %s must have navigation entries", role)
		assert.Equal(t, "Dashboard", portal.Entries[0].Label, "dashboard comes first for %s", role)
		assert.Equal(t, role.DefaultDashboardPath(), portal.Entries[0].Path)
		for _, entry := range portal.Entries {
			assert.NotEmpty(t, entry.Label)
			assert.NotEmpty(t, entry.Path)
		}
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	for _, role := range identity.AllRoles {
		first := Resolve(role)
		second := Resolve(role)
		assert.Equal(t, first, second, "role %s must resolve identically every time", role)
	}
}

func TestOnlyAdminHasShortcuts(t *testing.T) {
	admin := Resolve(identity.RoleAdmin)
	require.Len(t, admin.Shortcuts, 2)
	assert.Equal(t, identity.RoleFaculty, admin.Shortcuts[0].TargetRole)
	assert.Equal(t, identity.RoleStudent, admin.Shortcuts[1].TargetRole)

	assert.Empty(t, Resolve(identity.RoleFaculty).Shortcuts)
	assert.Empty(t, Resolve(identity.RoleStudent).Shortcuts)
}

func TestResolveUnknownRole(t *testing.T) {
	portal := Resolve(identity.Role("registrar"))
	assert.Empty(t, portal.Title)
	assert.Empty(t, portal.Entries)
}

func TestResolvedSlicesAreCopies(t *testing.T) {
	portal := Resolve(identity.RoleStudent)
	portal.Entries[0].Label = "Tampered"
	fresh := Resolve(identity.RoleStudent)
	assert.Equal(t, "Dashboard", fresh.Entries[0].Label)
}
