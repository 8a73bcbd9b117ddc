package session

import "sync"

// Repository holds live sequencers by session id so the UI layer can
// hand sessions back and forth instead of relying on ambient globals.
type Repository struct {
	mu       sync.Mutex
	sessions map[string]*Sequencer
}

// NewRepository creates an empty repository
func NewRepository() *Repository {
	return &Repository{sessions: make(map[string]*Sequencer)}
}

// Save stores a sequencer under its current session id
func (r *Repository) Save(s *Sequencer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.Session().ID] = s
}

// Get restores a sequencer by session id
func (r *Repository) Get(sessionID string) (*Sequencer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	return s, ok
}

// Delete drops a stored session
func (r *Repository) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}
