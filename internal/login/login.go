// Package login drives the login form: field state, validation, the single
// authentication request and what happens after it.
package login

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shindakun/urlshort/internal/form"
	"github.com/shindakun/urlshort/internal/models"
	"github.com/shindakun/urlshort/internal/notify"
	"go.uber.org/zap"
)

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission has not finished. No request is issued.
var ErrSubmitInFlight = errors.New("login: submission already in flight")

// Outcome of a Submit call
type Outcome string

const (
	OutcomeBlocked   Outcome = "blocked"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Result describes everything a Submit call changed, so callers can render
// it without reaching into shared state.
type Result struct {
	Outcome      Outcome
	Errors       form.Errors
	Notification models.Notification
	// Generation identifies Notification for notify.Notifier.Expire
	Generation uint64
	// Redirect is the route navigated to, empty if none
	Redirect string
	Loading  models.LoadingState
	// Session is set when token and username were persisted
	Session *models.Session
	// Err is the failure behind OutcomeFailed
	Err error
}

// Deps are the collaborators of a Form. Auth and Store are required.
type Deps struct {
	Auth      Authenticator
	Store     Store
	Navigator Navigator
	Loading   Loading
	Notifier  *notify.Notifier
	Logger    *zap.Logger
	// Observe is called once per Submit with its outcome
	Observe func(Outcome)
}

// Form is one login form instance
type Form struct {
	deps Deps

	mu         sync.Mutex
	values     models.Credentials
	errors     form.Errors
	submitting bool
}

// New creates an empty form
func New(deps Deps) (*Form, error) {
	if deps.Auth == nil {
		return nil, fmt.Errorf("login: authenticator is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("login: store is required")
	}
	if deps.Navigator == nil {
		deps.Navigator = NavigatorFunc(func(string) {})
	}
	if deps.Loading == nil {
		deps.Loading = NewFlag()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Form{deps: deps, errors: form.Errors{}}, nil
}

// Notifier returns the notifier the form reports outcomes to
func (f *Form) Notifier() *notify.Notifier {
	return f.deps.Notifier
}

// SetField updates one field and re-validates the form
func (f *Form) SetField(field, value string) form.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = f.values.Set(field, value)
	f.errors = form.Validate(f.values)
	return copyErrors(f.errors)
}

// SetValues replaces every field and re-validates the form
func (f *Form) SetValues(c models.Credentials) form.Errors {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values = c
	f.errors = form.Validate(f.values)
	return copyErrors(f.errors)
}

// Submit validates the form and, if it is valid and idle, performs the
// login request. Validation failures are reported as OutcomeBlocked with a
// nil error; request failures as OutcomeFailed with a nil error. The only
// error returned is ErrSubmitInFlight.
func (f *Form) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	f.errors = form.Validate(f.values)
	if f.errors.Any() {
		res := Result{Outcome: OutcomeBlocked, Errors: copyErrors(f.errors), Notification: f.deps.Notifier.Current()}
		f.mu.Unlock()
		f.observe(OutcomeBlocked)
		return res, nil
	}
	if f.submitting {
		f.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	f.submitting = true
	creds := f.values
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	log := f.deps.Logger.With(
		zap.String("attempt_id", uuid.NewString()),
		zap.String("email_domain", creds.EmailDomain()),
	)

	f.deps.Loading.SetLoading(models.LoadingSet)
	resp, err := f.deps.Auth.Login(ctx, creds)
	f.deps.Loading.SetLoading(models.LoadingDone)

	if err != nil {
		log.Info("login failed", zap.Error(err))
		return f.fail(err), nil
	}

	gen := f.deps.Notifier.Show(models.SeveritySuccess, models.SuccessMessage)
	res := Result{
		Outcome:      OutcomeSucceeded,
		Errors:       form.Errors{},
		Notification: f.deps.Notifier.Current(),
		Generation:   gen,
		Loading:      models.LoadingDone,
	}

	if !resp.HasSession() {
		log.Warn("login succeeded without a session in the response")
		f.observe(OutcomeSucceeded)
		return res, nil
	}

	sess := &models.Session{Token: resp.Token, Username: resp.User.Firstname}
	if err := f.persist(ctx, sess); err != nil {
		log.Error("failed to persist session", zap.Error(err))
		return f.fail(err), nil
	}

	res.Session = sess
	res.Redirect = models.ProfilePath(sess.Username)
	f.deps.Navigator.Navigate(res.Redirect)

	log.Info("login succeeded", zap.String("username", sess.Username), zap.String("redirect", res.Redirect))
	f.observe(OutcomeSucceeded)
	return res, nil
}

func (f *Form) persist(ctx context.Context, sess *models.Session) error {
	if err := f.deps.Store.Set(ctx, models.KeyToken, sess.Token); err != nil {
		return fmt.Errorf("store %s: %w", models.KeyToken, err)
	}
	if err := f.deps.Store.Set(ctx, models.KeyUsername, sess.Username); err != nil {
		return fmt.Errorf("store %s: %w", models.KeyUsername, err)
	}
	return nil
}

// userMessager is implemented by errors that carry text meant for the user
type userMessager interface {
	UserMessage() string
}

func (f *Form) fail(err error) Result {
	message := models.FallbackMessage
	var um userMessager
	if errors.As(err, &um) {
		message = um.UserMessage()
	}

	gen := f.deps.Notifier.Show(models.SeverityWarning, message)
	f.observe(OutcomeFailed)
	return Result{
		Outcome:      OutcomeFailed,
		Errors:       form.Errors{},
		Notification: f.deps.Notifier.Current(),
		Generation:   gen,
		Loading:      models.LoadingDone,
		Err:          err,
	}
}

func (f *Form) observe(o Outcome) {
	if f.deps.Observe != nil {
		f.deps.Observe(o)
	}
}

func copyErrors(e form.Errors) form.Errors {
	out := make(form.Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
