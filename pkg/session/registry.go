package session

import (
	"sync"

	"github.com/tilecraft/atlas/pkg/errors"
)

// Registry tracks live sessions by map id. It is an explicit, passable
// object; every lookup and teardown goes through it, so tests and multiple
// hosts can each hold their own isolated registry.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register adds a session under the given id, replacing and destroying any
// previous session with the same id.
func (r *Registry) Register(id string, s *Session) {
	r.mu.Lock()
	prev := r.sessions[id]
	r.sessions[id] = s
	r.mu.Unlock()
	if prev != nil && prev != s {
		prev.Destroy()
	}
}

// Get returns the session registered under id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no map session registered for %q", id)
	}
	return s, nil
}

// IDs returns the registered map ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Deregister removes and destroys the session registered under id. Unknown
// ids are a no-op.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	s := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if s != nil {
		s.Destroy()
	}
}

// Close destroys every registered session and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range all {
		s.Destroy()
	}
}
