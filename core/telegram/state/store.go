package state

import "sync"

type entry[S any] struct {
	mu    sync.Mutex
	value *S
}

// Store maps Telegram user ids to a session value of type S.
type Store[S any] struct {
	mu      sync.Mutex
	entries map[int64]*entry[S]
}

// NewStore returns an empty Store.
func NewStore[S any]() *Store[S] {
	return &Store[S]{entries: make(map[int64]*entry[S])}
}

func (s *Store[S]) slot(userID int64) *entry[S] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry[S]{}
		s.entries[userID] = e
	}
	return e
}

// lock returns the user's entry with its mutex held. An entry removed while
// the caller waited is dropped and the lookup retried, so only the entry in
// the map is ever locked.
func (s *Store[S]) lock(userID int64) *entry[S] {
	for {
		e := s.slot(userID)
		e.mu.Lock()
		s.mu.Lock()
		live := s.entries[userID] == e
		s.mu.Unlock()
		if live {
			return e
		}
		e.mu.Unlock()
	}
}

// Do runs fn with the user's session while holding that user's lock. The
// pointer passed to fn is nil when the user has no session; fn may return a
// replacement, and returning nil removes the session.
func (s *Store[S]) Do(userID int64, fn func(cur *S) (*S, error)) error {
	e := s.lock(userID)
	defer e.mu.Unlock()

	next, err := fn(e.value)
	e.value = next
	if next == nil {
		s.mu.Lock()
		if s.entries[userID] == e {
			delete(s.entries, userID)
		}
		s.mu.Unlock()
	}
	return err
}

// Peek returns a copy of the user's session.
func (s *Store[S]) Peek(userID int64) (S, bool) {
	var zero S
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return zero, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.value == nil {
		return zero, false
	}
	return *e.value, true
}

// Has reports whether the user has a session.
func (s *Store[S]) Has(userID int64) bool {
	_, ok := s.Peek(userID)
	return ok
}

// Delete drops the user's session.
func (s *Store[S]) Delete(userID int64) {
	_ = s.Do(userID, func(*S) (*S, error) { return nil, nil })
}

// Len returns the number of users with a session.
func (s *Store[S]) Len() int {
	s.mu.Lock()
	entries := make([]*entry[S], 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()
	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.value != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
