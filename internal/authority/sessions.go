package authority

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/platform/httpx"
)

// SessionManager stores live sessions in Redis, keyed by the opaque
// cookie value. The identity snapshot is written once at login and
// never mutated, so the role tied to a session cannot drift.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string { return sm.cookieName }

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration { return sm.ttl }

// Create persists a new session for the identity and returns its ID.
func (sm *SessionManager) Create(ctx context.Context, id identity.Identity) (string, error) {
	sessionID := uuid.NewString()
	payload, err := json.Marshal(id)
	if err != nil {
		return "", err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sessionID), payload, sm.ttl).Err(); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Lookup resolves a session ID to its identity snapshot. A missing or
// expired session yields httpx.ErrNoSession.
func (sm *SessionManager) Lookup(ctx context.Context, sessionID string) (*identity.Identity, error) {
	if sessionID == "" {
		return nil, httpx.ErrNoSession
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, httpx.ErrNoSession
		}
		return nil, err
	}
	var id identity.Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Destroy removes a session. Destroying an unknown session is not an
// error.
func (sm *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Cookie builds the session cookie for a session ID.
func (sm *SessionManager) Cookie(sessionID string) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sm.ttl),
	}
}

// ClearCookie builds the expired cookie that removes the session from
// the browser.
func (sm *SessionManager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}
