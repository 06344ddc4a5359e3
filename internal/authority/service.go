package authority

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/platform/httpx"
)

// Service wraps account and session business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates username/password credentials. Unknown users,
// inactive accounts and bad passwords all collapse into the same error
// so callers cannot probe for account existence.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, httpx.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, httpx.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, httpx.ErrInvalidCredentials
	}
	return user, nil
}

// RegisterInput carries a new account request.
type RegisterInput struct {
	Username   string
	Password   string
	FirstName  string
	LastName   string
	Email      string
	Role       identity.Role
	Department string
}

var nameCaser = cases.Title(language.Und)

// Register creates a new account. Omitted roles default to student;
// display names are title-cased for the portal header.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	role := input.Role
	if role == "" {
		role = identity.RoleStudent
	}
	if !role.Valid() {
		return nil, httpx.ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     strings.TrimSpace(input.Username),
		FirstName:    nameCaser.String(strings.TrimSpace(input.FirstName)),
		LastName:     nameCaser.String(strings.TrimSpace(input.LastName)),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Role:         role,
		Department:   strings.TrimSpace(input.Department),
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// PruneSessions clears audit rows that expired before the cutoff.
func (s *Service) PruneSessions(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, before)
}
