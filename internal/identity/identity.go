// Package identity defines the authenticated principal model shared by
// the portal and the identity authority.
package identity

import "fmt"

// Role is the closed classification driving portal access and navigation.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

// AllRoles lists every valid role in display order.
var AllRoles = []Role{RoleAdmin, RoleFaculty, RoleStudent}

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return Role(raw), nil
	}
	return "", fmt.Errorf("identity: unknown role %q", raw)
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// PortalPrefix returns the path prefix owned by the role's portal.
func (r Role) PortalPrefix() string {
	return "/" + string(r)
}

// DefaultDashboardPath returns the role's landing page.
func (r Role) DefaultDashboardPath() string {
	return r.PortalPrefix() + "/dashboard"
}

// Identity represents an authenticated principal. The role never changes
// for the lifetime of a session.
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	ProfileImage string `json:"profile_image,omitempty"`
	Department   string `json:"department,omitempty"`
}

// DisplayName returns the name shown in the portal header.
func (id Identity) DisplayName() string {
	if id.FirstName == "" && id.LastName == "" {
		return id.Username
	}
	if id.LastName == "" {
		return id.FirstName
	}
	return id.FirstName + " " + id.LastName
}
