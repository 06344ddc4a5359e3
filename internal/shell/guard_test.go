package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/session"
)

func authedState(role identity.Role) session.State {
	return session.State{
		Phase:    session.PhaseAuthenticated,
		Identity: &identity.Identity{ID: 1, Username: "someone", Role: role},
	}
}

func TestDecideUnknownShowsLoading(t *testing.T) {
	decision := Decide(session.State{Phase: session.PhaseUnknown}, "/admin/dashboard")
	assert.Equal(t, ActionShowLoading, decision.Action)
}

func TestDecideAnonymousRedirectsToLogin(t *testing.T) {
	for _, path := range []string{"/admin/dashboard", "/faculty/courses", "/student/grades", "/"} {
		decision := Decide(session.State{Phase: session.PhaseAnonymous}, path)
		assert.Equal(t, ActionRedirect, decision.Action, "path %s", path)
		assert.Equal(t, LoginPath, decision.RedirectPath, "path %s", path)
	}
}

func TestLoginAndRegisterAlwaysReachable(t *testing.T) {
	states := []session.State{
		{Phase: session.PhaseUnknown},
		{Phase: session.PhaseAnonymous},
		authedState(identity.RoleAdmin),
	}
	for _, state := range states {
		for _, path := range []string{LoginPath, RegisterPath} {
			decision := Decide(state, path)
			assert.Equal(t, ActionRender, decision.Action, "phase %s path %s", state.Phase, path)
		}
	}
}

func TestDecideRendersOwnPortal(t *testing.T) {
	decision := Decide(authedState(identity.RoleFaculty), "/faculty/courses")
	assert.Equal(t, ActionRender, decision.Action)
	assert.Equal(t, "Faculty Portal", decision.Portal.Title)
	assert.NotEmpty(t, decision.Portal.Entries)
}

func TestDecideRedirectsForeignPortalToOwnDashboard(t *testing.T) {
	decision := Decide(authedState(identity.RoleStudent), "/faculty/courses")
	assert.Equal(t, ActionRedirect, decision.Action)
	assert.Equal(t, "/student/dashboard", decision.RedirectPath,
		"a student never lands on faculty pages")

	decision = Decide(authedState(identity.RoleFaculty), "/admin/settings")
	assert.Equal(t, ActionRedirect, decision.Action)
	assert.Equal(t, "/faculty/dashboard", decision.RedirectPath)
}

func TestAdminShortcutsAllowPortalPreview(t *testing.T) {
	// Admin shortcuts entitle previewing the other portals; the
	// previewed portal's navigation is shown while the stored role
	// stays admin.
	decision := Decide(authedState(identity.RoleAdmin), "/student/dashboard")
	assert.Equal(t, ActionRender, decision.Action)
	assert.Equal(t, "Student Portal", decision.Portal.Title)

	decision = Decide(authedState(identity.RoleAdmin), "/faculty/gradebook")
	assert.Equal(t, ActionRender, decision.Action)
	assert.Equal(t, "Faculty Portal", decision.Portal.Title)

	// No shortcut runs the other way.
	decision = Decide(authedState(identity.RoleFaculty), "/student/dashboard")
	assert.Equal(t, ActionRedirect, decision.Action)
	assert.Equal(t, "/faculty/dashboard", decision.RedirectPath)
}

func TestPrefixMatchingIsSegmentAware(t *testing.T) {
	decision := Decide(authedState(identity.RoleStudent), "/studentlounge")
	assert.Equal(t, ActionRedirect, decision.Action)
	assert.Equal(t, "/student/dashboard", decision.RedirectPath)
}
