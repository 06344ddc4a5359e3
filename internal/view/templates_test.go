package view

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/nav"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderPortalShell(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	id := identity.Identity{ID: 1, Username: "admin1", FirstName: "Ada", LastName: "Okafor", Role: identity.RoleAdmin}
	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/portal.html", TemplateData{
		Title:       "Dashboard",
		CurrentPath: "/admin/dashboard",
		Identity:    &id,
		Portal:      nav.Resolve(identity.RoleAdmin),
	})
	require.NoError(t, err)

	body := res.Body.String()
	assert.True(t, strings.Contains(body, "Admin Portal"), "portal title rendered")
	assert.True(t, strings.Contains(body, "Ada Okafor"), "display name rendered")
	assert.True(t, strings.Contains(body, "/admin/courses"), "sidebar entries rendered")
	assert.True(t, strings.Contains(body, "/faculty/dashboard"), "admin shortcuts rendered")
}

func TestRenderLoginPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	err = engine.Render(res, "pages/login.html", TemplateData{Title: "Sign in", CSRFToken: "tok"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(res.Body.String(), "<form"), "login form rendered")
}
