// Package shell composes the session store and the navigation resolver
// into routing decisions and the rendered portal shell.
package shell

import (
	"strings"

	"github.com/lumina-lms/lumina/internal/nav"
	"github.com/lumina-lms/lumina/internal/session"
)

// Well-known paths outside any portal.
const (
	LoginPath    = "/login"
	RegisterPath = "/register"
	LogoutPath   = "/logout"
)

// Action is the kind of routing decision the guard makes.
type Action int

const (
	// ActionShowLoading renders the neutral placeholder while the
	// resume call has not settled.
	ActionShowLoading Action = iota
	// ActionRender serves the requested view.
	ActionRender
	// ActionRedirect sends the client to Decision.RedirectPath.
	ActionRedirect
)

// Decision is the guard's verdict for one (state, path) pair.
type Decision struct {
	Action       Action
	RedirectPath string
	// Portal carries the resolved navigation when Action is
	// ActionRender on an authenticated portal page.
	Portal nav.Portal
}

// Decide evaluates the routing state machine. It holds no state of its
// own; transitions are driven purely by the session store snapshot and
// the requested path.
func Decide(state session.State, path string) Decision {
	// The login and register pages stay reachable regardless of
	// session state.
	if path == LoginPath || path == RegisterPath {
		return Decision{Action: ActionRender}
	}

	switch state.Phase {
	case session.PhaseUnknown:
		return Decision{Action: ActionShowLoading}
	case session.PhaseAnonymous:
		return Decision{Action: ActionRedirect, RedirectPath: LoginPath}
	}

	role := state.Identity.Role
	portal := nav.Resolve(role)
	if underPrefix(path, role.PortalPrefix()) {
		return Decision{Action: ActionRender, Portal: portal}
	}

	// Shortcut entitlements let the role preview another portal without
	// changing its stored identity; the previewed portal's navigation is
	// shown.
	for _, shortcut := range portal.Shortcuts {
		if underPrefix(path, shortcut.TargetRole.PortalPrefix()) {
			return Decision{Action: ActionRender, Portal: nav.Resolve(shortcut.TargetRole)}
		}
	}

	// Everything else lands on the role's own dashboard, never on
	// another role's pages.
	return Decision{Action: ActionRedirect, RedirectPath: role.DefaultDashboardPath()}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
