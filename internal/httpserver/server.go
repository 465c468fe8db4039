package httpserver

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"accountportal/session-auth/internal/auth"
	"accountportal/session-auth/internal/config"
	"accountportal/session-auth/internal/userdb"
)

//go:embed templates/*.html
var templateFS embed.FS

type AuthService interface {
	Register(username, password, confirmPassword string) (userdb.User, error)
	Login(username, password string) (userdb.User, error)
	CurrentUser(username string) (userdb.User, error)
}

type SessionManager interface {
	Issue(username string) (string, error)
	FromRequest(r *http.Request) (string, error)
	SetCookie(w http.ResponseWriter, token string)
	ClearCookie(w http.ResponseWriter)
}

type AuditLogger interface {
	Log(actor, action, outcome, detail string) error
}

type Deps struct {
	Auth     AuthService
	Sessions SessionManager
	Audit    AuditLogger
	Log      *slog.Logger
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      loggingMiddleware(deps.Log, handler),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type handler struct {
	deps      Deps
	templates *template.Template
}

func NewHandler(deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	h := &handler{
		deps:      deps,
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.home)
	mux.HandleFunc("/account", h.account)
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/logout", h.logout)
	mux.HandleFunc("/register", h.register)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

type viewData struct {
	ErrorMessage string
	Username     string
	CreatedAt    string
}

func (h *handler) render(w http.ResponseWriter, status int, name string, data viewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.deps.Log.Error("render view", "view", name, "error", err)
	}
}

func (h *handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.deps.Log.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *handler) home(w http.ResponseWriter, r *http.Request) {
	// The root pattern catches everything without a more specific route.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.render(w, http.StatusOK, "home.html", viewData{})
}

func (h *handler) account(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username, err := h.deps.Sessions.FromRequest(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	u, err := h.deps.Auth.CurrentUser(username)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			// The record behind the session vanished; fall back to anonymous.
			h.deps.Sessions.ClearCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "account.html", viewData{
		Username:  u.Username,
		CreatedAt: u.FormattedCreatedAt(),
	})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, http.StatusOK, "login.html", viewData{})
	case http.MethodPost:
		username := r.FormValue("username")
		password := r.FormValue("password")

		u, err := h.deps.Auth.Login(username, password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				h.audit(username, "auth.login", "failed", "invalid credentials")
				h.render(w, http.StatusOK, "login.html", viewData{
					ErrorMessage: "Invalid username or password.",
				})
				return
			}
			h.audit(username, "auth.login", "failed", err.Error())
			h.internalError(w, r, err)
			return
		}

		if err := h.establishSession(w, u.Username); err != nil {
			h.internalError(w, r, err)
			return
		}
		h.audit(u.Username, "auth.login", "success", "")
		http.Redirect(w, r, "/account", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Clearing is unconditional: logging out an anonymous session is a no-op.
	username, _ := h.deps.Sessions.FromRequest(r)
	h.deps.Sessions.ClearCookie(w)
	if username != "" {
		h.audit(username, "auth.logout", "success", "")
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.render(w, http.StatusOK, "register.html", viewData{})
	case http.MethodPost:
		username := r.FormValue("username")
		password := r.FormValue("password")
		confirmPassword := r.FormValue("confirm_password")

		u, err := h.deps.Auth.Register(username, password, confirmPassword)
		if err != nil {
			if msg, ok := registerErrorMessage(err); ok {
				h.audit(username, "auth.register", "failed", msg)
				h.render(w, http.StatusOK, "register.html", viewData{ErrorMessage: msg})
				return
			}
			h.audit(username, "auth.register", "failed", err.Error())
			h.internalError(w, r, err)
			return
		}

		if err := h.establishSession(w, u.Username); err != nil {
			h.internalError(w, r, err)
			return
		}
		h.audit(u.Username, "auth.register", "success", "")
		http.Redirect(w, r, "/account", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func registerErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, auth.ErrMissingField):
		return "Missing a required field.", true
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "Passwords do not match.", true
	case errors.Is(err, auth.ErrUsernameTaken):
		return "Username is already in use.", true
	}
	return "", false
}

func (h *handler) establishSession(w http.ResponseWriter, username string) error {
	token, err := h.deps.Sessions.Issue(username)
	if err != nil {
		return err
	}
	h.deps.Sessions.SetCookie(w, token)
	return nil
}

func (h *handler) audit(actor, action, outcome, detail string) {
	if h.deps.Audit == nil {
		return
	}
	if err := h.deps.Audit.Log(actor, action, outcome, detail); err != nil {
		h.deps.Log.Error("write audit event", "action", action, "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Info("request",
			"rid", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
