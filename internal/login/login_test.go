package login

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shindakun/urlshort/internal/authapi"
	"github.com/shindakun/urlshort/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAuth struct {
	calls   atomic.Int32
	last    models.Credentials
	resp    *models.LoginResponse
	err     error
	gate    chan struct{}
	entered chan struct{}
}

func (a *fakeAuth) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	a.calls.Add(1)
	a.last = creds
	if a.entered != nil {
		a.entered <- struct{}{}
	}
	if a.gate != nil {
		<-a.gate
	}
	return a.resp, a.err
}

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}}
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// loadingLog records every loading transition in order
type loadingLog struct {
	mu     sync.Mutex
	states []models.LoadingState
}

func (l *loadingLog) SetLoading(state models.LoadingState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, state)
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk full")
}

type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) Navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func newForm(t *testing.T, auth Authenticator, store Store, nav Navigator, loading Loading) *Form {
	t.Helper()
	f, err := New(Deps{
		Auth:      auth,
		Store:     store,
		Navigator: nav,
		Loading:   loading,
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return f
}

func fill(f *Form, email, password string) {
	f.SetField(models.FieldEmail, email)
	f.SetField(models.FieldPassword, password)
}

func TestSubmitSuccessPersistsAndNavigates(t *testing.T) {
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "T", User: &models.User{Firstname: "Alice"}}}
	store := newMemStore()
	nav := &recorder{}
	loading := &loadingLog{}

	f := newForm(t, auth, store, nav, loading)
	fill(f, "alice@example.com", "wonderland")

	res, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, int32(1), auth.calls.Load())

	token, _ := store.Get("token")
	username, _ := store.Get("username")
	assert.Equal(t, "T", token)
	assert.Equal(t, "Alice", username)

	assert.Equal(t, "/Alice", res.Redirect)
	assert.Equal(t, []string{"/Alice"}, nav.paths)

	assert.Equal(t, models.Notification{Visible: true, Severity: models.SeveritySuccess, Message: "success"}, res.Notification)
	assert.Equal(t, []models.LoadingState{models.LoadingSet, models.LoadingDone}, loading.states)
}

func TestFlagRemembersLastState(t *testing.T) {
	flag := NewFlag()
	assert.Equal(t, models.LoadingIdle, flag.State())

	flag.SetLoading(models.LoadingSet)
	assert.True(t, flag.State().Active())

	flag.SetLoading(models.LoadingDone)
	assert.Equal(t, models.LoadingDone, flag.State())
}

func TestSubmitSuccessWithoutSession(t *testing.T) {
	auth := &fakeAuth{resp: &models.LoginResponse{}}
	store := newMemStore()
	nav := &recorder{}

	f := newForm(t, auth, store, nav, nil)
	fill(f, "alice@example.com", "wonderland")

	res, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, "success", res.Notification.Message)
	assert.Empty(t, res.Redirect)
	assert.Empty(t, nav.paths)
	_, ok := store.Get("token")
	assert.False(t, ok)
}

func TestSubmitEscapesFirstnameInRoute(t *testing.T) {
	tests := []struct {
		firstname string
		want      string
	}{
		{firstname: "Anne Marie", want: "/Anne%20Marie"},
		{firstname: "Anne/Marie", want: "/Anne%2FMarie"},
	}

	for _, tt := range tests {
		t.Run(tt.firstname, func(t *testing.T) {
			auth := &fakeAuth{resp: &models.LoginResponse{Token: "T", User: &models.User{Firstname: tt.firstname}}}
			store := newMemStore()
			f := newForm(t, auth, store, nil, nil)
			fill(f, "anne@example.com", "wonderland")

			res, err := f.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Redirect)
			require.NotNil(t, res.Session)
			assert.True(t, res.Session.IsActive(), "what was stored must read back as a session")

			username, _ := store.Get("username")
			assert.Equal(t, tt.firstname, username)
		})
	}
}

func TestSubmitBlankFirstnameStoresNothing(t *testing.T) {
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "T", User: &models.User{Firstname: "  "}}}
	store := newMemStore()
	nav := &recorder{}
	f := newForm(t, auth, store, nav, nil)
	fill(f, "alice@example.com", "wonderland")

	res, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Nil(t, res.Session)
	assert.Empty(t, res.Redirect)
	assert.Empty(t, nav.paths)
	_, ok := store.Get("token")
	assert.False(t, ok)
}

func TestSubmitFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "server message", err: authapi.DecodeFailure(401, []byte(`"Invalid credentials"`)), want: "Invalid credentials"},
		{name: "no body", err: authapi.DecodeFailure(500, nil), want: "something went wrong"},
		{name: "transport error", err: &authapi.Failure{Err: errors.New("connection refused")}, want: "something went wrong"},
		{name: "untyped error", err: errors.New("boom"), want: "something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{err: tt.err}
			store := newMemStore()
			nav := &recorder{}
			flag := NewFlag()

			f := newForm(t, auth, store, nav, flag)
			fill(f, "alice@example.com", "wonderland")

			res, err := f.Submit(context.Background())
			require.NoError(t, err)

			assert.Equal(t, OutcomeFailed, res.Outcome)
			assert.Equal(t, models.SeverityWarning, res.Notification.Severity)
			assert.Equal(t, tt.want, res.Notification.Message)
			assert.True(t, res.Notification.Visible)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.Empty(t, nav.paths)
			assert.Equal(t, models.LoadingDone, flag.State())
			_, ok := store.Get("token")
			assert.False(t, ok)
		})
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "T", User: &models.User{Firstname: "Alice"}}}
	flag := NewFlag()

	var observed []Outcome
	f, err := New(Deps{Auth: auth, Store: newMemStore(), Loading: flag, Observe: func(o Outcome) { observed = append(observed, o) }})
	require.NoError(t, err)
	fill(f, "bad", "short")

	res, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Equal(t, int32(0), auth.calls.Load(), "no request while the form is invalid")
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, "email must be a valid email", res.Errors["email"])
	assert.Equal(t, "enter minimum 8 char", res.Errors["password"])
	assert.False(t, res.Notification.Visible)
	assert.Equal(t, models.LoadingIdle, flag.State())
	assert.Equal(t, []Outcome{OutcomeBlocked}, observed)
}

func TestSubmitEmptyFormBlocked(t *testing.T) {
	auth := &fakeAuth{}
	f := newForm(t, auth, newMemStore(), nil, nil)

	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Equal(t, "Email is required", res.Errors["email"])
	assert.Equal(t, "Password is required", res.Errors["password"])
	assert.Equal(t, int32(0), auth.calls.Load())
}

func TestSubmitRejectsDoubleSubmit(t *testing.T) {
	auth := &fakeAuth{
		resp:    &models.LoginResponse{Token: "T", User: &models.User{Firstname: "Alice"}},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	f := newForm(t, auth, newMemStore(), nil, nil)
	fill(f, "alice@example.com", "wonderland")

	done := make(chan Result)
	go func() {
		res, err := f.Submit(context.Background())
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case <-auth.entered:
	case <-time.After(time.Second):
		t.Fatal("first submission never reached the authenticator")
	}

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(auth.gate)
	res := <-done
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, int32(1), auth.calls.Load())

	// finished submissions free the form again
	_, err = f.Submit(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int32(2), auth.calls.Load())
}

func TestSubmitStoreFailure(t *testing.T) {
	auth := &fakeAuth{resp: &models.LoginResponse{Token: "T", User: &models.User{Firstname: "Alice"}}}
	nav := &recorder{}
	f := newForm(t, auth, failingStore{}, nav, nil)
	fill(f, "alice@example.com", "wonderland")

	res, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "something went wrong", res.Notification.Message)
	assert.Empty(t, nav.paths)
}

func TestFormUsableAfterFailure(t *testing.T) {
	auth := &fakeAuth{err: authapi.DecodeFailure(401, []byte("Invalid credentials"))}
	f := newForm(t, auth, newMemStore(), nil, nil)
	fill(f, "alice@example.com", "wonderland")

	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	auth.err = nil
	auth.resp = &models.LoginResponse{Token: "T", User: &models.User{Firstname: "Alice"}}
	res, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, int32(2), auth.calls.Load())
}

func TestSetFieldRevalidates(t *testing.T) {
	auth := &fakeAuth{resp: &models.LoginResponse{}}
	f := newForm(t, auth, newMemStore(), nil, nil)

	errs := f.SetField(models.FieldEmail, "bad")
	assert.Equal(t, "email must be a valid email", errs["email"])
	assert.Equal(t, "Password is required", errs["password"])

	errs = f.SetField(models.FieldEmail, "alice@example.com")
	_, hasEmail := errs["email"]
	assert.False(t, hasEmail, "banner clears once the field is valid")

	errs = f.SetField(models.FieldPassword, "wonderland")
	assert.Empty(t, errs)

	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Credentials{Email: "alice@example.com", Password: "wonderland"}, auth.last)
}

func TestNewRequiresAuthAndStore(t *testing.T) {
	_, err := New(Deps{Store: newMemStore()})
	assert.Error(t, err)
	_, err = New(Deps{Auth: &fakeAuth{}})
	assert.Error(t, err)
}
