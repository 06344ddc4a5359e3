package shell

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
)

const (
	// CSRFCookieName carries the per-browser CSRF seed.
	CSRFCookieName = "lumina_csrf"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
)

var (
	// ErrCSRFTokenMissing occurs when no token accompanies a mutation.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the token does not match the seed.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// CSRFManager issues and verifies double-submit CSRF tokens. The seed
// lives in a browser cookie; the form token is the HMAC of that seed,
// so forged cross-site posts cannot produce a matching pair.
type CSRFManager struct {
	secret []byte
	secure bool
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string, secure bool) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), secure: secure}
}

// EnsureToken returns the form token for the request's CSRF seed,
// issuing a fresh seed cookie when none exists.
func (m *CSRFManager) EnsureToken(w http.ResponseWriter, r *http.Request) string {
	seed := ""
	if cookie, err := r.Cookie(CSRFCookieName); err == nil {
		seed = cookie.Value
	}
	if seed == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return ""
		}
		seed = base64.RawURLEncoding.EncodeToString(buf)
		http.SetCookie(w, &http.Cookie{
			Name:     CSRFCookieName,
			Value:    seed,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return m.tokenFor(seed)
}

// VerifyToken checks a submitted form token against the request's seed.
func (m *CSRFManager) VerifyToken(r *http.Request, token string) error {
	if token == "" {
		return ErrCSRFTokenMissing
	}
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFTokenMissing
	}
	expected := m.tokenFor(cookie.Value)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) tokenFor(seed string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(seed))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
