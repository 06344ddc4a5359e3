package authority

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-lms/lumina/internal/platform/httpx"
)

// Repository defines data access for accounts and session audit rows.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, username, first_name, last_name, email, role, profile_image, department, password_hash, is_active, created_at, updated_at`

// FindByUsername returns the account for a username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Email,
		&user.Role, &user.ProfileImage, &user.Department, &user.PasswordHash, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new account and fills in its generated fields.
// A username or email collision maps to httpx.ErrDuplicate.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) error {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, first_name, last_name, email, role, profile_image, department, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		 RETURNING id, is_active, created_at, updated_at`,
		user.Username, user.FirstName, user.LastName, user.Email, user.Role,
		user.ProfileImage, user.Department, user.PasswordHash)
	if err := row.Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

// CreateSession records session metadata for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO auth_sessions (id, user_id, expires_at, ip, user_agent) VALUES ($1, $2, $3, $4, $5)`,
		id, userID, expiresAt, ip, ua)
	return err
}

// DeleteSession removes a session audit row.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE id = $1`, id)
	return err
}

// DeleteExpiredSessions clears audit rows whose expiry predates the cutoff.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM auth_sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
