package scratch

import "sync"

// State is a snapshot of the shell's authentication flags.
type State struct {
	Authenticating bool `json:"is_authenticating"`
	Authenticated  bool `json:"is_authenticated"`
}

// StateObserver is notified with a snapshot after every state change.
type StateObserver func(State)

var _ AppContext = &AuthState{}

// AuthState holds the shell's authentication flags. It is the only copy of
// the authenticated flag; descendants reach it through AppContext.
type AuthState struct {
	mu        sync.RWMutex
	state     State
	observers []StateObserver

	// closed is set on teardown; the session check may no longer write
	closed bool
}

func newAuthState(observers ...StateObserver) *AuthState {
	return &AuthState{
		state:     State{Authenticating: true},
		observers: observers,
	}
}

// Snapshot returns a copy of the current flags
func (s *AuthState) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticating is true while the startup session check is in flight
func (s *AuthState) IsAuthenticating() bool {
	return s.Snapshot().Authenticating
}

// IsAuthenticated implements AppContext
func (s *AuthState) IsAuthenticated() bool {
	return s.Snapshot().Authenticated
}

// SetAuthenticated implements AppContext
func (s *AuthState) SetAuthenticated(authenticated bool) {
	s.mu.Lock()
	if s.state.Authenticated == authenticated {
		s.mu.Unlock()
		return
	}
	s.state.Authenticated = authenticated
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
}

// restore marks the state authenticated on behalf of the session check.
// It returns false once the state has been detached.
func (s *AuthState) restore() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	changed := !s.state.Authenticated
	s.state.Authenticated = true
	snapshot := s.state
	s.mu.Unlock()

	if changed {
		s.notify(snapshot)
	}
	return true
}

// detach stops the session check from writing to the state
func (s *AuthState) detach() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *AuthState) detached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// finishAuthenticating releases the loading gate. It returns false if the
// gate was already released or the state is detached.
func (s *AuthState) finishAuthenticating() bool {
	s.mu.Lock()
	if s.closed || !s.state.Authenticating {
		s.mu.Unlock()
		return false
	}
	s.state.Authenticating = false
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

func (s *AuthState) notify(snapshot State) {
	for _, observer := range s.observers {
		if observer != nil {
			observer(snapshot)
		}
	}
}
