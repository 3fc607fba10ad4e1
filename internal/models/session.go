package models

import (
	"fmt"
	"strings"
)

// Storage keys written after a successful login
const (
	KeyToken    = "token"
	KeyUsername = "username"
)

// Session holds the artifacts persisted after a successful login.
// Other parts of the application read them to authenticate requests and
// to greet the user.
type Session struct {
	Token    string `json:"-"` // Never serialize to JSON
	Username string `json:"username"`
}

// SessionState represents the current state of a session
type SessionState string

const (
	SessionStateActive    SessionState = "active"
	SessionStateAnonymous SessionState = "anonymous"
)

// Validate checks if the session fields are valid
func (s *Session) Validate() error {
	if s.Token == "" {
		return fmt.Errorf("token is required")
	}

	if !ValidUsername(s.Username) {
		return fmt.Errorf("username is required")
	}

	return nil
}

// ValidUsername reports whether name can be stored and routed to. Any
// non-blank first name qualifies; ProfilePath escapes the rest.
func ValidUsername(name string) bool {
	return strings.TrimSpace(name) != ""
}

// State returns the current state of the session
func (s *Session) State() SessionState {
	if s == nil || s.Validate() != nil {
		return SessionStateAnonymous
	}
	return SessionStateActive
}

// IsActive returns true if the session carries a usable token and username
func (s *Session) IsActive() bool {
	return s.State() == SessionStateActive
}

// ProfilePath returns the route the user lands on after login
func (s *Session) ProfilePath() string {
	return ProfilePath(s.Username)
}
