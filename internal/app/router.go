package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lumina-lms/lumina/internal/authority"
	"github.com/lumina-lms/lumina/internal/shell"
	"github.com/lumina-lms/lumina/web"
)

// RouterParams groups dependencies for building the portal router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	ShellHandler *shell.Handler
}

// NewRouter constructs the chi.Router serving the role portals.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthzHandler)

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	params.ShellHandler.MountRoutes(r)

	return r
}

// AuthorityRouterParams groups dependencies for the identity authority router.
type AuthorityRouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Handler *authority.Handler
}

// NewAuthorityRouter constructs the chi.Router for the identity authority API.
func NewAuthorityRouter(params AuthorityRouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthzHandler)

	params.Handler.MountRoutes(r)

	return r
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets (JS, CSS, fonts, images) are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
