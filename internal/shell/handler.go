package shell

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lumina-lms/lumina/internal/gateway"
	"github.com/lumina-lms/lumina/internal/nav"
	"github.com/lumina-lms/lumina/internal/session"
	"github.com/lumina-lms/lumina/internal/view"
)

// Config carries the shell's runtime settings.
type Config struct {
	AuthorityURL  string
	CookieName    string
	SecureCookies bool
}

// Handler serves the portal shell. Each request drives a fresh session
// store through resume → guard decision, relaying the browser's session
// cookie to the identity authority.
type Handler struct {
	logger    *slog.Logger
	cfg       Config
	templates *view.Engine
	csrf      *CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, cfg Config, templates *view.Engine, csrf *CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		cfg:       cfg,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers the shell routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get(LoginPath, h.showLogin)
	r.Post(LoginPath, h.handleLogin)
	r.Get(RegisterPath, h.showRegister)
	r.Post(RegisterPath, h.handleRegister)
	r.Post(LogoutPath, h.handleLogout)
	r.Get("/", h.servePortal)
	r.NotFound(h.servePortal)
}

// openSession builds the per-request session machinery: a store in the
// Unknown phase and a gateway seeded with the browser's session cookie.
func (h *Handler) openSession(r *http.Request) (*session.Store, *gateway.Client, error) {
	store := session.NewStore()
	client, err := gateway.New(h.cfg.AuthorityURL, store, h.logger)
	if err != nil {
		return nil, nil, err
	}
	if cookie, err := r.Cookie(h.cfg.CookieName); err == nil && cookie.Value != "" {
		client.SetCredential(h.cfg.CookieName, cookie.Value)
	}
	return store, client, nil
}

func (h *Handler) servePortal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	store, client, err := h.openSession(r)
	if err != nil {
		h.logger.Error("open session", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, err := client.Resume(r.Context()); err != nil {
		// Resume failures settle as Anonymous; the diagnostic is logged,
		// never shown to the user.
		h.logger.Warn("session resume", slog.Any("error", err))
	}

	state := store.State()
	decision := Decide(state, r.URL.Path)
	switch decision.Action {
	case ActionRedirect:
		http.Redirect(w, r, decision.RedirectPath, http.StatusSeeOther)
	case ActionShowLoading:
		h.renderPage(w, r, "pages/loading.html", view.TemplateData{Title: "Loading"}, http.StatusOK)
	case ActionRender:
		data := view.TemplateData{
			Title:       pageTitle(decision.Portal, r.URL.Path),
			CSRFToken:   h.csrf.EnsureToken(w, r),
			Notice:      r.URL.Query().Get("notice"),
			CurrentPath: r.URL.Path,
			Identity:    state.Identity,
			Portal:      decision.Portal,
		}
		h.renderPage(w, r, "pages/portal.html", data, http.StatusOK)
	}
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Username string
	Error    string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	data := view.TemplateData{
		Title:     "Sign in",
		CSRFToken: h.csrf.EnsureToken(w, r),
		Notice:    r.URL.Query().Get("notice"),
		Data:      loginPageData{},
	}
	h.renderPage(w, r, "pages/login.html", data, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.csrf.VerifyToken(r, r.PostFormValue(CSRFFormField)); err != nil {
		h.logger.Warn("csrf validation failed", slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form); err != nil {
		h.renderLoginError(w, r, form.Username, "Username and password are required")
		return
	}

	store, client, err := h.openSession(r)
	if err != nil {
		h.logger.Error("open session", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, err := client.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		var authErr *gateway.AuthenticationError
		if errors.As(err, &authErr) {
			h.logger.Info("login rejected", slog.String("username", form.Username))
			h.renderLoginError(w, r, form.Username, "Invalid username or password")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	if !store.State().Authenticated() {
		// Settled but not authenticated: a competing logout won.
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	h.relaySessionCookie(w, client)
	http.Redirect(w, r, id.Role.DefaultDashboardPath(), http.StatusSeeOther)
}

type registerForm struct {
	Username  string `validate:"required,min=3"`
	Password  string `validate:"required,min=8"`
	FirstName string
	LastName  string
	Email     string `validate:"required,email"`
}

type registerPageData struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Error     string
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	data := view.TemplateData{
		Title:     "Create account",
		CSRFToken: h.csrf.EnsureToken(w, r),
		Data:      registerPageData{},
	}
	h.renderPage(w, r, "pages/register.html", data, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.csrf.VerifyToken(r, r.PostFormValue(CSRFFormField)); err != nil {
		h.logger.Warn("csrf validation failed", slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	form := registerForm{
		Username:  r.PostFormValue("username"),
		Password:  r.PostFormValue("password"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
	}
	if err := h.validator.Struct(form); err != nil {
		h.renderRegisterError(w, r, form, "Check the highlighted fields: username, a password of at least 8 characters and a valid email are required")
		return
	}

	_, client, err := h.openSession(r)
	if err != nil {
		h.logger.Error("open session", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	// New accounts enrol as students; staff roles are provisioned
	// out of band.
	id, err := client.Register(r.Context(), gateway.RegisterInput{
		Username:  form.Username,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
	})
	if err != nil {
		var regErr *gateway.RegistrationError
		if errors.As(err, &regErr) {
			h.renderRegisterError(w, r, form, regErr.Reason)
			return
		}
		h.logger.Error("register", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	h.relaySessionCookie(w, client)
	http.Redirect(w, r, id.Role.DefaultDashboardPath(), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.csrf.VerifyToken(r, r.PostFormValue(CSRFFormField)); err != nil {
		h.logger.Warn("csrf validation failed", slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	_, client, err := h.openSession(r)
	if err != nil {
		h.logger.Error("open session", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	notice := "You have been signed out"
	if err := client.Logout(r.Context()); err != nil {
		// Local state is cleared regardless; the remote failure is a
		// non-blocking notice.
		h.logger.Warn("remote session invalidation", slog.Any("error", err))
		notice = "Signed out locally; the server session may linger"
	}

	h.clearSessionCookie(w)
	http.Redirect(w, r, LoginPath+"?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

func (h *Handler) relaySessionCookie(w http.ResponseWriter, client *gateway.Client) {
	value := client.Credential(h.cfg.CookieName)
	if value == "" {
		h.logger.Error("authority issued no session cookie")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) renderLoginError(w http.ResponseWriter, r *http.Request, username, message string) {
	data := view.TemplateData{
		Title:     "Sign in",
		CSRFToken: h.csrf.EnsureToken(w, r),
		Data:      loginPageData{Username: username, Error: message},
	}
	h.renderPage(w, r, "pages/login.html", data, http.StatusBadRequest)
}

func (h *Handler) renderRegisterError(w http.ResponseWriter, r *http.Request, form registerForm, message string) {
	data := view.TemplateData{
		Title:     "Create account",
		CSRFToken: h.csrf.EnsureToken(w, r),
		Data: registerPageData{
			Username:  form.Username,
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Error:     message,
		},
	}
	h.renderPage(w, r, "pages/register.html", data, http.StatusBadRequest)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, name string, data view.TemplateData, status int) {
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, name, data); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// pageTitle picks the label of the nav entry matching the current path,
// falling back to the portal title.
func pageTitle(portal nav.Portal, path string) string {
	for _, entry := range portal.Entries {
		if entry.Path == path {
			return entry.Label
		}
	}
	return portal.Title
}
