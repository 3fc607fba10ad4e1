package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/shindakun/urlshort/internal/login"
	"github.com/shindakun/urlshort/internal/models"
)

const (
	sessionName        = "urlshort-session"
	sessionKeyClientID = "client_id"
	flashKey           = "notification"
)

// ErrNoSession is returned by GetSession when the cookie carries no login
var ErrNoSession = errors.New("auth: no session")

type contextKey struct{}

// SessionManager keeps the login artifacts in a signed cookie. It is the
// browser's durable storage for token and username.
type SessionManager struct {
	store *sessions.CookieStore
}

// InitSessions creates a new session manager with HTTP-only cookies
func InitSessions(secret string, maxAge int, secure bool, sameSite http.SameSite) *SessionManager {
	store := sessions.NewCookieStore([]byte(secret))

	// Configure session options
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true, // Prevent JavaScript access
		Secure:   secure,
		SameSite: sameSite,
	}
	store.MaxAge(maxAge)

	return &SessionManager{store: store}
}

// ParseSameSite maps a config value to http.SameSite; unknown values are Lax
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func (sm *SessionManager) cookie(r *http.Request) *sessions.Session {
	// A cookie that fails to decode (rotated secret, tampering) is treated
	// as absent; Get still returns a fresh session in that case.
	s, _ := sm.store.Get(r, sessionName)
	return s
}

// GetSession returns the stored login, or ErrNoSession
func (sm *SessionManager) GetSession(r *http.Request) (*models.Session, error) {
	s := sm.cookie(r)

	token, _ := s.Values[models.KeyToken].(string)
	username, _ := s.Values[models.KeyUsername].(string)

	session := &models.Session{Token: token, Username: username}
	if !session.IsActive() {
		return nil, ErrNoSession
	}
	return session, nil
}

// ClearSession expires the cookie (logout)
func (sm *SessionManager) ClearSession(w http.ResponseWriter, r *http.Request) error {
	s := sm.cookie(r)
	for k := range s.Values {
		delete(s.Values, k)
	}
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear cookie session: %w", err)
	}
	return nil
}

// ClientID returns the identifier of this browser, minting and saving one
// on first use.
func (sm *SessionManager) ClientID(w http.ResponseWriter, r *http.Request) (string, error) {
	s := sm.cookie(r)
	if id, ok := s.Values[sessionKeyClientID].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	s.Values[sessionKeyClientID] = id
	if err := s.Save(r, w); err != nil {
		return "", fmt.Errorf("failed to save client id: %w", err)
	}
	return id, nil
}

// AddNotification stages n as a flash for the next request. It is written
// by the next Save.
func (sm *SessionManager) AddNotification(r *http.Request, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	sm.cookie(r).AddFlash(string(data), flashKey)
	return nil
}

// Save writes the request's session cookie, including everything staged
// through Writer and AddNotification
func (sm *SessionManager) Save(w http.ResponseWriter, r *http.Request) error {
	if err := sm.cookie(r).Save(r, w); err != nil {
		return fmt.Errorf("failed to save cookie session: %w", err)
	}
	return nil
}

// PopNotification returns and removes the flashed notification, if any
func (sm *SessionManager) PopNotification(w http.ResponseWriter, r *http.Request) (models.Notification, bool) {
	s := sm.cookie(r)
	flashes := s.Flashes(flashKey)
	if len(flashes) == 0 {
		return models.Notification{}, false
	}
	if err := s.Save(r, w); err != nil {
		return models.Notification{}, false
	}

	// Only the latest notification is shown
	raw, _ := flashes[len(flashes)-1].(string)
	var n models.Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		return models.Notification{}, false
	}
	return n, true
}

// Writer returns a login.Store that stages values in this request's
// session. Nothing reaches the browser until Save.
func (sm *SessionManager) Writer(r *http.Request) login.Store {
	return &cookieWriter{sm: sm, r: r}
}

type cookieWriter struct {
	sm *SessionManager
	r  *http.Request
}

func (c *cookieWriter) Set(_ context.Context, key, value string) error {
	c.sm.cookie(c.r).Values[key] = value
	return nil
}

// GetSessionFromContext retrieves session from request context
func GetSessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(contextKey{}).(*models.Session)
	return session, ok
}

// SetSessionInContext stores session in request context
func SetSessionInContext(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}
