// Package gateway performs the identity-mutating operations against the
// remote identity authority and translates their outcomes into session
// store updates. It is the store's only writer.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/platform/httpx"
	"github.com/lumina-lms/lumina/internal/session"
)

const (
	resumePath   = "/v1/session"
	loginPath    = "/v1/login"
	logoutPath   = "/v1/logout"
	registerPath = "/v1/register"
)

// Client talks to the identity authority. Session-identifying
// credentials ride an ambient cookie jar, never explicit parameters.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	store      *session.Store
	logger     *slog.Logger

	mu        sync.Mutex
	logoutGen uint64
}

// RegisterInput carries the fields for a new account. Role defaults to
// student when empty.
type RegisterInput struct {
	Username  string        `json:"username"`
	Password  string        `json:"password"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
	Role      identity.Role `json:"role,omitempty"`
}

// New constructs a Client bound to the given store.
func New(baseURL string, store *session.Store, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base: base,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
		store:  store,
		logger: logger,
	}, nil
}

// SetCredential seeds the ambient jar with a session cookie, e.g. one
// relayed from a browser request.
func (c *Client) SetCredential(name, value string) {
	c.httpClient.Jar.SetCookies(c.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// Credential returns the current value of the named session cookie, or
// empty when the jar holds none.
func (c *Client) Credential(name string) string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.base) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// Resume recovers an existing session. A settled outcome always leaves
// the store out of the Unknown phase: Authenticated on success,
// Anonymous otherwise. Transport failures surface as a *ResumeError
// diagnostic while the store still lands Anonymous, never in an
// authenticated state on an ambiguous error.
func (c *Client) Resume(ctx context.Context) (*identity.Identity, error) {
	gen := c.generation()
	resp, err := c.do(ctx, http.MethodGet, resumePath, nil)
	if err != nil {
		c.store.SetAnonymous()
		return nil, &ResumeError{Err: err}
	}
	id, problem, err := decodeIdentity(resp)
	switch {
	case err != nil:
		c.store.SetAnonymous()
		return nil, &ResumeError{Err: err}
	case problem != nil:
		if problem.Status == http.StatusUnauthorized {
			// Explicit "no session" from the authority.
			c.store.SetAnonymous()
			return nil, nil
		}
		c.store.SetAnonymous()
		return nil, &ResumeError{Err: problem}
	}
	c.commitAuthenticated(gen, *id)
	return id, nil
}

// Login submits credentials. On success the store becomes
// Authenticated; on rejection the store keeps its prior state and an
// *AuthenticationError is returned. It never partially authenticates.
func (c *Client) Login(ctx context.Context, username, password string) (*identity.Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, &AuthenticationError{Reason: "username and password are required"}
	}
	gen := c.generation()
	body := map[string]string{"username": username, "password": password}
	resp, err := c.do(ctx, http.MethodPost, loginPath, body)
	if err != nil {
		return nil, &AuthenticationError{Reason: "identity authority unreachable", Err: err}
	}
	id, problem, err := decodeIdentity(resp)
	switch {
	case err != nil:
		return nil, &AuthenticationError{Reason: "malformed authority response", Err: err}
	case problem != nil:
		return nil, &AuthenticationError{Reason: problem.Detail}
	}
	if !c.commitAuthenticated(gen, *id) {
		c.logger.Debug("login settled after logout, store stays anonymous",
			slog.String("username", id.Username))
	}
	return id, nil
}

// Logout invalidates the remote session best-effort and transitions the
// store to Anonymous unconditionally. A failed remote invalidation is
// returned as a non-fatal *InvalidationWarning; the local outcome is
// never rolled back. A login still in flight when Logout is issued can
// no longer re-authenticate the store, whichever settles last.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.logoutGen++
	c.mu.Unlock()

	var warning error
	resp, err := c.do(ctx, http.MethodPost, logoutPath, nil)
	if err != nil {
		warning = &InvalidationWarning{Err: err}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			warning = &InvalidationWarning{Err: fmt.Errorf("authority responded %d", resp.StatusCode)}
		}
	}

	c.store.SetAnonymous()
	return warning
}

// Register creates a new account and, on success, behaves like a login.
// The role defaults to student when the caller omits one.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*identity.Identity, error) {
	if input.Role == "" {
		input.Role = identity.RoleStudent
	}
	if !input.Role.Valid() {
		return nil, &RegistrationError{Reason: fmt.Sprintf("unknown role %q", input.Role)}
	}
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		return nil, &RegistrationError{Reason: "username and password are required"}
	}
	gen := c.generation()
	resp, err := c.do(ctx, http.MethodPost, registerPath, input)
	if err != nil {
		return nil, &RegistrationError{Reason: "identity authority unreachable", Err: err}
	}
	id, problem, err := decodeIdentity(resp)
	switch {
	case err != nil:
		return nil, &RegistrationError{Reason: "malformed authority response", Err: err}
	case problem != nil:
		return nil, &RegistrationError{Reason: problem.Detail}
	}
	c.commitAuthenticated(gen, *id)
	return id, nil
}

func (c *Client) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logoutGen
}

// commitAuthenticated applies an authenticated outcome unless a logout
// was issued after the driving operation started. Logout is
// authoritative regardless of settle order.
func (c *Client) commitAuthenticated(gen uint64, id identity.Identity) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.logoutGen != gen {
		return false
	}
	c.store.SetAuthenticated(id)
	return true
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// decodeIdentity reads an authority response: an identity payload on
// 2xx, an RFC7807 problem otherwise.
func decodeIdentity(resp *http.Response) (*identity.Identity, *httpx.ProblemDetail, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		problem := &httpx.ProblemDetail{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		if err := json.Unmarshal(data, problem); err != nil || problem.Status == 0 {
			problem.Status = resp.StatusCode
		}
		if problem.Detail == "" {
			problem.Detail = problem.Title
		}
		return nil, problem, nil
	}
	var id identity.Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return nil, nil, fmt.Errorf("decode identity: %w", err)
	}
	if !id.Role.Valid() {
		return nil, nil, fmt.Errorf("authority returned unknown role %q", id.Role)
	}
	return &id, nil, nil
}
