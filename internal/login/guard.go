package login

import "sync"

// Guard tracks in-flight submissions per client when each request builds
// its own Form, as the web handlers do.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewGuard returns an empty guard
func NewGuard() *Guard {
	return &Guard{inflight: map[string]struct{}{}}
}

// Begin marks key as submitting. It returns ErrSubmitInFlight if key is
// already submitting; otherwise the caller must call release when done.
func (g *Guard) Begin(key string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[key]; busy {
		return nil, ErrSubmitInFlight
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}
