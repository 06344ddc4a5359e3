package authority

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/lumina-lms/lumina/internal/identity"
	"github.com/lumina-lms/lumina/internal/platform/httpx"
)

// Handler wires the JSON endpoints of the identity authority.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	sessions  *SessionManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		sessions:  sessions,
		validator: validator.New(),
	}
}

// MountRoutes registers the authority routes on the provided router.
// Credential-guessing endpoints carry a tighter rate limit than the
// rest of the API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/v1/session", h.handleResume)
	r.Post("/v1/logout", h.handleLogout)
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Post("/v1/login", h.handleLogin)
		r.Post("/v1/register", h.handleRegister)
	})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.Lookup(r.Context(), h.sessionID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, id)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
		return
	}
	h.openSession(w, r, user, http.StatusOK)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID != "" {
		if err := h.sessions.Destroy(r.Context(), sessionID); err != nil {
			h.logger.Error("destroy session", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		if err := h.service.RemoveSession(r.Context(), sessionID); err != nil {
			h.logger.Warn("remove session audit row", slog.Any("error", err))
		}
	}
	http.SetCookie(w, h.sessions.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

type registerRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Password   string `json:"password" validate:"required,min=8"`
	FirstName  string `json:"first_name" validate:"max=100"`
	LastName   string `json:"last_name" validate:"max=100"`
	Email      string `json:"email" validate:"required,email"`
	Role       string `json:"role" validate:"omitempty,oneof=admin faculty student"`
	Department string `json:"department" validate:"max=100"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", validationDetail(err))
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput{
		Username:   req.Username,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Role:       identity.Role(req.Role),
		Department: req.Department,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.openSession(w, r, user, http.StatusCreated)
}

// openSession issues the session cookie and responds with the identity.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request, user *User, status int) {
	id := user.Identity()
	sessionID, err := h.sessions.Create(r.Context(), id)
	if err != nil {
		h.logger.Error("create session", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	expiresAt := time.Now().Add(h.sessions.TTL())
	if err := h.service.RegisterSession(r.Context(), sessionID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session audit row", slog.Any("error", err))
	}
	http.SetCookie(w, h.sessions.Cookie(sessionID))
	httpx.JSON(w, status, id)
}

func (h *Handler) sessionID(r *http.Request) string {
	cookie, err := r.Cookie(h.sessions.CookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}

func validationDetail(err error) string {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		return "invalid field: " + fieldErrs[0].Field()
	}
	return "validation failed"
}
