// Package web serves the user registry's HTML forms and the live-validation
// endpoint the browser script calls.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"user-registry/internal/config"
	"user-registry/internal/service"
)

// Options wires the handler to its collaborators.
type Options struct {
	HTTP  config.HTTPConfig
	Users *service.UserService
	// Ping reports database health for /healthz. Optional.
	Ping func(ctx context.Context) error
	Log  *zap.Logger
}

// Handler holds the dependencies of every route.
type Handler struct {
	cfg       config.HTTPConfig
	users     *service.UserService
	ping      func(ctx context.Context) error
	log       *zap.Logger
	store     sessions.Store
	templates map[string]*template.Template
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.Users == nil {
		return nil, errors.New("web: users service is required")
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	key := []byte(opts.HTTP.SessionKey)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, errors.New("web: generate session key")
		}
		log.Warn("http.session_key not set; flash messages will not survive a restart")
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.HTTP.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	return &Handler{
		cfg:       opts.HTTP,
		users:     opts.Users,
		ping:      opts.Ping,
		log:       log,
		store:     store,
		templates: tmpl,
	}, nil
}

// Routes builds the router with the full middleware stack.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	if h.cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(h.cfg.MaxBodyBytes))
	}
	if h.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.cfg.RequestTimeout))
	}
	if origins := h.cfg.Origins(); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", h.serveHealth)
	r.Get("/assets/users_form.js", serveScript)

	r.Group(func(r chi.Router) {
		if h.cfg.CSRFKey != "" {
			r.Use(h.csrfProtect())
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/users", http.StatusSeeOther)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.serveIndex)
			r.Get("/new", h.serveNew)
			r.Post("/", h.handleCreate)
			r.Post("/validate", h.handleValidate)

			r.Get("/{id}", h.serveShow)
			r.Get("/{id}/edit", h.serveEdit)
			r.Post("/{id}", h.handleUpdate)
			r.Put("/{id}", h.handleUpdate)
			r.Patch("/{id}", h.handleUpdate)
			r.Post("/{id}/delete", h.handleDelete)
			r.Delete("/{id}", h.handleDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.renderNotFound(w, r)
	})
	return r
}

func (h *Handler) csrfProtect() func(http.Handler) http.Handler {
	protect := csrf.Protect(
		[]byte(h.cfg.CSRFKey),
		csrf.Secure(h.cfg.SecureCookies),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(csrfField),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.log.Warn("csrf check failed", zap.String("request_id", RequestID(r.Context())), zap.Error(csrf.FailureReason(r)))
			h.renderError(w, r, http.StatusForbidden, "The form has expired. Reload the page and try again.")
		})),
	)
	if h.cfg.SecureCookies {
		return protect
	}
	return func(next http.Handler) http.Handler {
		inner := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inner.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func (h *Handler) serveHealth(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.log.Error("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "revision": h.users.Revision()})
}
