package handlers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shindakun/urlshort/internal/auth"
	"github.com/shindakun/urlshort/internal/authapi"
	"github.com/shindakun/urlshort/internal/form"
	"github.com/shindakun/urlshort/internal/login"
	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/notify"
	"github.com/shindakun/urlshort/internal/version"
	"github.com/shindakun/urlshort/internal/web/static"
)

// Handlers holds dependencies for HTTP handlers
type Handlers struct {
	sessionManager *auth.SessionManager
	authenticator  login.Authenticator
	guard          *login.Guard
	notifyDuration time.Duration
	observe        func(login.Outcome)
	pages          map[string]*template.Template
	logger         *zap.Logger
}

// New creates a new Handlers instance. observe may be nil.
func New(sessionManager *auth.SessionManager, authenticator login.Authenticator, notifyDuration time.Duration, observe func(login.Outcome), logger *zap.Logger) (*Handlers, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if notifyDuration <= 0 {
		notifyDuration = notify.DefaultDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handlers{
		sessionManager: sessionManager,
		authenticator:  authenticator,
		guard:          login.NewGuard(),
		notifyDuration: notifyDuration,
		observe:        observe,
		pages:          pages,
		logger:         logger,
	}, nil
}

// Index sends signed-in users to their profile and everyone else to the login page
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessionManager.GetSession(r); err == nil {
		http.Redirect(w, r, session.ProfilePath(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, models.LoginPath, http.StatusSeeOther)
}

// LoginPage renders an empty login form
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	// Assign the client id up front so concurrent submits share it
	if _, err := h.sessionManager.ClientID(w, r); err != nil {
		h.logger.Warn("failed to assign client id", zap.Error(err))
	}

	data := TemplateData{
		Title: "Sign in",
		Login: models.NewLoginPageData(),
	}
	if n, ok := h.sessionManager.PopNotification(w, r); ok {
		data.Notification = n
	}

	h.render(w, r, http.StatusOK, "login", data)
}

// LoginSubmit validates the posted credentials and, when they pass, sends
// them to the authentication endpoint
func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	creds := models.Credentials{
		Email:    r.PostFormValue(models.FieldEmail),
		Password: r.PostFormValue(models.FieldPassword),
	}

	log := h.logger.With(zap.String("request_id", chimw.GetReqID(r.Context())))

	clientID, err := h.sessionManager.ClientID(w, r)
	if err != nil {
		log.Warn("failed to assign client id", zap.Error(err))
		clientID = r.RemoteAddr
	}

	loginForm, err := login.New(login.Deps{
		Auth:     h.authenticator,
		Store:    h.sessionManager.Writer(r),
		Notifier: notify.New(notify.WithDuration(h.notifyDuration)),
		Logger:   log,
		Observe:  h.observe,
	})
	if err != nil {
		log.Error("failed to build login form", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	page := models.NewLoginPageData()
	page.Email = creds.Email

	// Invalid forms never reach the guard; Submit reports them as blocked
	if errs := loginForm.SetValues(creds); !errs.Any() {
		release, err := h.guard.Begin(clientID)
		if err != nil {
			h.render(w, r, http.StatusConflict, "login", TemplateData{
				Title:        "Sign in",
				Login:        page,
				Notification: models.Notification{Visible: true, Severity: models.SeverityWarning, Message: models.InFlightMessage},
				Loading:      models.LoadingSet,
			})
			return
		}
		defer release()
	}

	res, err := loginForm.Submit(r.Context())
	if errors.Is(err, login.ErrSubmitInFlight) {
		http.Error(w, models.InFlightMessage, http.StatusConflict)
		return
	}

	page.Errors = res.Errors
	data := TemplateData{
		Title:        "Sign in",
		Login:        page,
		Notification: res.Notification,
		Loading:      res.Loading,
	}

	switch res.Outcome {
	case login.OutcomeBlocked:
		h.render(w, r, http.StatusUnprocessableEntity, "login", data)

	case login.OutcomeFailed:
		h.render(w, r, failureStatus(res.Err), "login", data)

	case login.OutcomeSucceeded:
		if res.Redirect == "" {
			// The server accepted the credentials but sent nothing to keep
			h.render(w, r, http.StatusOK, "login", data)
			return
		}
		if err := h.sessionManager.AddNotification(r, res.Notification); err != nil {
			log.Warn("failed to flash notification", zap.Error(err))
		}
		// token, username and the flash go out in a single cookie
		if err := h.sessionManager.Save(w, r); err != nil {
			log.Error("failed to save session", zap.Error(err))
			data.Notification = models.Notification{Visible: true, Severity: models.SeverityWarning, Message: models.FallbackMessage}
			h.render(w, r, http.StatusInternalServerError, "login", data)
			return
		}
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
	}
}

// failureStatus picks the response code for a failed login
func failureStatus(err error) int {
	var failure *authapi.Failure
	if !errors.As(err, &failure) {
		// storage errors
		return http.StatusInternalServerError
	}
	if failure.Unauthorized() {
		return http.StatusUnauthorized
	}
	return http.StatusBadGateway
}

// ValidateLogin re-runs the validation schema for the posted fields and
// returns the failing messages as JSON
func (h *Handlers) ValidateLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	errs := form.Validate(models.Credentials{
		Email:    r.PostFormValue(models.FieldEmail),
		Password: r.PostFormValue(models.FieldPassword),
	})

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]form.Errors{"errors": errs}); err != nil {
		h.logger.Warn("failed to encode validation response", zap.Error(err))
	}
}

// Profile renders the landing route of a signed-in user (protected route)
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	// Get session from context (set by RequireAuth middleware)
	session, ok := auth.GetSessionFromContext(r.Context())
	if !ok || session == nil {
		http.Redirect(w, r, models.LoginPath, http.StatusSeeOther)
		return
	}

	name := chi.URLParam(r, "username")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name != session.Username {
		http.Redirect(w, r, session.ProfilePath(), http.StatusSeeOther)
		return
	}

	data := TemplateData{
		Title:   session.Username,
		Session: session,
	}
	if n, ok := h.sessionManager.PopNotification(w, r); ok {
		data.Notification = n
	}

	h.render(w, r, http.StatusOK, "profile", data)
}

// Logout clears the session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.ClearSession(w, r); err != nil {
		h.logger.Warn("failed to clear session", zap.Error(err))
	}
	http.Redirect(w, r, models.LoginPath, http.StatusSeeOther)
}

// Healthz reports liveness
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// ServeStatic serves the embedded stylesheet and scripts
func (h *Handlers) ServeStatic() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(static.FS)))
}

// NotFound renders the 404 page
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionManager.GetSession(r)
	h.render(w, r, http.StatusNotFound, "not_found", TemplateData{
		Title:   "Not found",
		Session: session,
	})
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data TemplateData) {
	data.Version = version.GetVersion()
	if err := h.renderTemplate(w, r, status, name, data); err != nil {
		h.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
