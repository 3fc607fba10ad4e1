package tui

import (
	"sync"

	"github.com/shindakun/urlshort/internal/models"
)

// Router is the terminal app's current route. It implements login.Navigator.
type Router struct {
	mu   sync.RWMutex
	path string
}

// NewRouter starts on the login route
func NewRouter() *Router {
	return &Router{path: models.LoginPath}
}

// Navigate switches the active route
func (r *Router) Navigate(path string) {
	r.mu.Lock()
	r.path = path
	r.mu.Unlock()
}

// Path returns the active route
func (r *Router) Path() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.path
}
