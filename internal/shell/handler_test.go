package shell_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/platform/httpx"
	"github.com/lumina-lms/lumina/internal/shell"
	"github.com/lumina-lms/lumina/internal/view"
)

const cookieName = "lumina_session"

// stubAuthority implements just enough of the identity authority for
// the shell flows under test.
type stubAuthority struct {
	sessions   map[string]identity.Identity
	failLogout bool
}

func (s *stubAuthority) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/session", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(cookieName); err == nil {
			if id, ok := s.sessions[cookie.Value]; ok {
				httpx.JSON(w, http.StatusOK, id)
				return
			}
		}
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no active session")
	})
	mux.HandleFunc("POST /v1/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "student1" || creds.Password != "password123" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
			return
		}
		id := identity.Identity{ID: 42, Username: "student1", FirstName: "Sam", LastName: "Rivera", Role: identity.RoleStudent}
		s.sessions["sess-1"] = id
		http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "sess-1", Path: "/"})
		httpx.JSON(w, http.StatusOK, id)
	})
	mux.HandleFunc("POST /v1/logout", func(w http.ResponseWriter, r *http.Request) {
		if s.failLogout {
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if cookie, err := r.Cookie(cookieName); err == nil {
			delete(s.sessions, cookie.Value)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /v1/register", func(w http.ResponseWriter, r *http.Request) {
		var input struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		}
		_ = json.NewDecoder(r.Body).Decode(&input)
		if input.Username == "student1" {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "username already taken")
			return
		}
		id := identity.Identity{ID: 77, Username: input.Username, Role: identity.Role(input.Role)}
		s.sessions["sess-2"] = id
		http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "sess-2", Path: "/"})
		httpx.JSON(w, http.StatusCreated, id)
	})
	return mux
}

func newShell(t *testing.T, authority *stubAuthority) http.Handler {
	t.Helper()
	server := httptest.NewServer(authority.handler())
	t.Cleanup(server.Close)

	templates, err := view.NewEngine()
	require.NoError(t, err)
	handler := shell.NewHandler(nil, shell.Config{
		AuthorityURL: server.URL,
		CookieName:   cookieName,
	}, templates, shell.NewCSRFManager("csrfsecret", false))

	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router
}

var csrfTokenPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// primeCSRF fetches the login page and returns the seed cookie plus the
// matching form token.
func primeCSRF(t *testing.T, router http.Handler) (*http.Cookie, string) {
	t.Helper()
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, res.Code)

	var seed *http.Cookie
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == shell.CSRFCookieName {
			seed = cookie
		}
	}
	require.NotNil(t, seed, "login page must issue a csrf seed cookie")

	match := csrfTokenPattern.FindStringSubmatch(res.Body.String())
	require.Len(t, match, 2, "login page must embed a csrf token")
	return seed, match[1]
}

func postForm(router http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range res.Result().Cookies() {
		if cookie.Name == cookieName {
			return cookie
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func TestAnonymousPortalRequestRedirectsToLogin(t *testing.T) {
	router := newShell(t, &stubAuthority{sessions: map[string]identity.Identity{}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/login", res.Header().Get("Location"))
}

func TestLoginPageAlwaysReachable(t *testing.T) {
	router := newShell(t, &stubAuthority{sessions: map[string]identity.Identity{}})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<form")
}

func TestLoginFlow(t *testing.T) {
	authority := &stubAuthority{sessions: map[string]identity.Identity{}}
	router := newShell(t, authority)
	seed, token := primeCSRF(t, router)

	form := url.Values{}
	form.Set("username", "student1")
	form.Set("password", "password123")
	form.Set("csrf_token", token)
	res := postForm(router, "/login", form, seed)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/student/dashboard", res.Header().Get("Location"))
	sess := sessionCookie(t, res)
	assert.Equal(t, "sess-1", sess.Value)

	// The relayed cookie now authenticates portal requests.
	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(sess)
	page := httptest.NewRecorder()
	router.ServeHTTP(page, req)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Student Portal")
	assert.Contains(t, page.Body.String(), "Sam Rivera")
}

func TestLoginRejectionRerendersForm(t *testing.T) {
	router := newShell(t, &stubAuthority{sessions: map[string]identity.Identity{}})
	seed, token := primeCSRF(t, router)

	form := url.Values{}
	form.Set("username", "student1")
	form.Set("password", "wrongpass")
	form.Set("csrf_token", token)
	res := postForm(router, "/login", form, seed)

	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid username or password")
	for _, cookie := range res.Result().Cookies() {
		assert.NotEqual(t, cookieName, cookie.Name, "no session cookie on rejection")
	}
}

func TestLoginWithoutCSRFTokenForbidden(t *testing.T) {
	router := newShell(t, &stubAuthority{sessions: map[string]identity.Identity{}})

	form := url.Values{}
	form.Set("username", "student1")
	form.Set("password", "password123")
	res := postForm(router, "/login", form)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestStudentCannotReachFacultyPages(t *testing.T) {
	authority := &stubAuthority{sessions: map[string]identity.Identity{
		"sess-1": {ID: 42, Username: "student1", Role: identity.RoleStudent},
	}}
	router := newShell(t, authority)

	req := httptest.NewRequest(http.MethodGet, "/faculty/courses", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "sess-1"})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/student/dashboard", res.Header().Get("Location"))
}

func TestAdminPreviewsStudentPortal(t *testing.T) {
	authority := &stubAuthority{sessions: map[string]identity.Identity{
		"sess-9": {ID: 1, Username: "admin1", FirstName: "Ada", Role: identity.RoleAdmin},
	}}
	router := newShell(t, authority)

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "sess-9"})
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "Student Portal")
	assert.Contains(t, res.Body.String(), "admin", "stored role is unchanged")
}

func TestLogoutClearsCookieEvenWhenRemoteFails(t *testing.T) {
	authority := &stubAuthority{
		sessions:   map[string]identity.Identity{"sess-1": {ID: 42, Username: "student1", Role: identity.RoleStudent}},
		failLogout: true,
	}
	router := newShell(t, authority)
	seed, token := primeCSRF(t, router)

	form := url.Values{}
	form.Set("csrf_token", token)
	res := postForm(router, "/logout", form, seed, &http.Cookie{Name: cookieName, Value: "sess-1"})

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.True(t, strings.HasPrefix(res.Header().Get("Location"), "/login?notice="))

	cleared := sessionCookie(t, res)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge, "session cookie must be expired")
}

func TestRegisterDefaultsToStudentPortal(t *testing.T) {
	authority := &stubAuthority{sessions: map[string]identity.Identity{}}
	router := newShell(t, authority)
	seed, token := primeCSRF(t, router)

	form := url.Values{}
	form.Set("username", "newkid")
	form.Set("password", "password123")
	form.Set("email", "newkid@lumina.edu")
	form.Set("csrf_token", token)
	res := postForm(router, "/register", form, seed)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/student/dashboard", res.Header().Get("Location"))
	assert.Equal(t, "sess-2", sessionCookie(t, res).Value)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	authority := &stubAuthority{sessions: map[string]identity.Identity{}}
	router := newShell(t, authority)
	seed, token := primeCSRF(t, router)

	form := url.Values{}
	form.Set("username", "student1")
	form.Set("password", "password123")
	form.Set("email", "dupe@lumina.edu")
	form.Set("csrf_token", token)
	res := postForm(router, "/register", form, seed)

	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "already taken")
}
