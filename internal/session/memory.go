package session

import (
	"sync"
)

// Store is the in-memory session store. Every accessor copies the route so
// callers never share a slice with the store.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Start creates or overwrites the session of user with an empty route in
// StateAwaitingOrigin. An unfinished flow is discarded.
func (s *Store) Start(user int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := &Session{User: user, State: StateAwaitingOrigin, Route: []string{}}
	s.sessions[user] = sess
	return snapshot(sess)
}

// Get returns the session of user if one was ever started.
func (s *Store) Get(user int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[user]
	if !ok {
		return Session{}, false
	}
	return snapshot(sess), true
}

// State returns the current state of user, StateIdle when absent.
func (s *Store) State(user int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[user]; ok {
		return sess.State
	}
	return StateIdle
}

// InProgress reports whether user is somewhere inside the route dialog.
func (s *Store) InProgress(user int64) bool {
	return s.State(user) != StateIdle
}

// AppendCity appends one city to the route of user.
func (s *Store) AppendCity(user int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[user]
	if !ok {
		return &NoActiveSessionError{User: user}
	}
	sess.Route = append(sess.Route, name)
	return nil
}

// Transition moves user to st.
func (s *Store) Transition(user int64, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[user]
	if !ok {
		return &NoActiveSessionError{User: user}
	}
	sess.State = st
	return nil
}

// ClearRoute empties the route of user, keeping the session itself.
func (s *Store) ClearRoute(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[user]; ok {
		sess.Route = sess.Route[:0:0]
	}
}

// Reset returns user to StateIdle with an empty route.
func (s *Store) Reset(user int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[user]; ok {
		sess.State = StateIdle
		sess.Route = sess.Route[:0:0]
	}
}

// Len returns the number of sessions ever started.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func snapshot(sess *Session) Session {
	return Session{
		User:  sess.User,
		State: sess.State,
		Route: append([]string{}, sess.Route...),
	}
}
