// Package nav derives per-role navigation from the closed role set. The
// resolver is a pure lookup: no network, no mutable state, safe to call
// on every render.
package nav

import "github.com/lumina-lms/lumina/internal/identity"

// Entry is a single sidebar item. Order within a portal is the
// displayed menu order.
type Entry struct {
	Label string
	Icon  string
	Path  string
}

// Shortcut lets an eligible role preview another role's portal without
// altering its own stored identity.
type Shortcut struct {
	Label      string
	TargetRole identity.Role
	Path       string
	Icon       string
}

// Portal is the resolved navigation for one role.
type Portal struct {
	Title     string
	Entries   []Entry
	Shortcuts []Shortcut
}

// The policy table is total over the closed role set; adding a role is
// a single entry here plus the identity constant.
var portals = map[identity.Role]Portal{
	identity.RoleAdmin: {
		Title: "Admin Portal",
		Entries: []Entry{
			{Label: "Dashboard", Icon: "layout-dashboard", Path: "/admin/dashboard"},
			{Label: "Faculty", Icon: "users", Path: "/admin/faculty"},
			{Label: "Students", Icon: "graduation-cap", Path: "/admin/students"},
			{Label: "Courses", Icon: "book-open", Path: "/admin/courses"},
			{Label: "Reports", Icon: "bar-chart", Path: "/admin/reports"},
			{Label: "Settings", Icon: "settings", Path: "/admin/settings"},
		},
		Shortcuts: []Shortcut{
			{Label: "Faculty Portal", TargetRole: identity.RoleFaculty, Path: "/faculty/dashboard", Icon: "presentation"},
			{Label: "Student Portal", TargetRole: identity.RoleStudent, Path: "/student/dashboard", Icon: "backpack"},
		},
	},
	identity.RoleFaculty: {
		Title: "Faculty Portal",
		Entries: []Entry{
			{Label: "Dashboard", Icon: "layout-dashboard", Path: "/faculty/dashboard"},
			{Label: "My Courses", Icon: "book-open", Path: "/faculty/courses"},
			{Label: "Gradebook", Icon: "clipboard-list", Path: "/faculty/gradebook"},
			{Label: "Attendance", Icon: "calendar-check", Path: "/faculty/attendance"},
			{Label: "Schedule", Icon: "calendar", Path: "/faculty/schedule"},
		},
	},
	identity.RoleStudent: {
		Title: "Student Portal",
		Entries: []Entry{
			{Label: "Dashboard", Icon: "layout-dashboard", Path: "/student/dashboard"},
			{Label: "My Courses", Icon: "book-open", Path: "/student/courses"},
			{Label: "Assignments", Icon: "pencil", Path: "/student/assignments"},
			{Label: "Grades", Icon: "award", Path: "/student/grades"},
			{Label: "Schedule", Icon: "calendar", Path: "/student/schedule"},
		},
	},
}

// Resolve returns the portal navigation for a role. Identical input
// yields identical, order-stable output. Unknown roles resolve to an
// empty portal; callers validate roles before resolving.
func Resolve(role identity.Role) Portal {
	portal, ok := portals[role]
	if !ok {
		return Portal{}
	}
	out := Portal{Title: portal.Title}
	out.Entries = append(out.Entries, portal.Entries...)
	out.Shortcuts = append(out.Shortcuts, portal.Shortcuts...)
	return out
}
