package login

import (
	"context"
	"sync"

	"github.com/shindakun/urlshort/internal/models"
)

// Authenticator performs the single outbound login request
type Authenticator interface {
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
}

// Store is durable key-value storage for session artifacts
type Store interface {
	Set(ctx context.Context, key, value string) error
}

// Navigator moves the user to another route
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

// Navigate calls f(path)
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Loading receives loading indicator transitions. It is passed in
// explicitly by whoever renders the indicator.
type Loading interface {
	SetLoading(state models.LoadingState)
}

// Flag is a goroutine-safe Loading that remembers the last state
type Flag struct {
	mu    sync.RWMutex
	state models.LoadingState
}

// NewFlag returns an idle flag
func NewFlag() *Flag {
	return &Flag{state: models.LoadingIdle}
}

// SetLoading records the new state
func (f *Flag) SetLoading(state models.LoadingState) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

// State returns the current state
func (f *Flag) State() models.LoadingState {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state == "" {
		return models.LoadingIdle
	}
	return f.state
}
