// Package notify implements the transient notification shown after a login
// attempt: Hidden -> Visible -> Hidden, at most one message at a time.
package notify

import (
	"sync"
	"time"

	"github.com/shindakun/urlshort/internal/models"
)

// DefaultDuration is how long a notification stays up without interaction
const DefaultDuration = 2000 * time.Millisecond

// Reason explains why a dismissal was requested
type Reason string

const (
	ReasonTimeout   Reason = "timeout"
	ReasonClose     Reason = "close"
	ReasonClickAway Reason = "clickaway"
)

// Option configures a Notifier
type Option func(*Notifier)

// WithDuration overrides the auto-hide delay. Non-positive values keep the default.
func WithDuration(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.duration = d
		}
	}
}

// Notifier owns one notification slot. It runs no timers of its own: the
// caller that draws the notification schedules Expire with the generation
// returned by Show.
type Notifier struct {
	duration time.Duration

	mu      sync.Mutex
	current models.Notification
	gen     uint64
}

// New creates a hidden notifier
func New(opts ...Option) *Notifier {
	n := &Notifier{duration: DefaultDuration}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Duration returns the auto-hide delay
func (n *Notifier) Duration() time.Duration {
	return n.duration
}

// Show replaces whatever is displayed with a new visible notification and
// returns its generation.
func (n *Notifier) Show(severity models.Severity, message string) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.gen++
	n.current = models.Notification{Visible: true, Severity: severity, Message: message}
	return n.gen
}

// Dismiss hides the notification. Click-away dismissals are ignored so that
// a stray click does not swallow the message. Returns true if the
// notification went from visible to hidden.
func (n *Notifier) Dismiss(reason Reason) bool {
	if reason == ReasonClickAway {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	return n.hideLocked()
}

// Expire hides the notification if gen is still the one on display
func (n *Notifier) Expire(gen uint64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return false
	}
	return n.hideLocked()
}

// Current returns a copy of the notification state
func (n *Notifier) Current() models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// hideLocked must be called with n.mu held
func (n *Notifier) hideLocked() bool {
	if !n.current.Visible {
		return false
	}
	n.current.Visible = false
	return true
}
