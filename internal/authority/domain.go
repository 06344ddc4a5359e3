// Package authority implements the identity authority: the remote
// service the portal's session gateway talks to. It owns user accounts
// and the server side of every session.
package authority

import (
	"time"

	"github.com/lumina-lms/lumina/internal/identity"
)

// User represents a stored account.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Role         identity.Role
	ProfileImage string
	Department   string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the account onto the wire model shared with the
// portal. Credentials never leave the authority.
func (u *User) Identity() identity.Identity {
	return identity.Identity{
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
		Department:   u.Department,
	}
}
