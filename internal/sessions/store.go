// Package sessions keeps one conversation state per user session in memory.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"triage-assistant/internal/domain"
)

const defaultIdleTTL = 2 * time.Hour

var (
	ErrNotFound = errors.New("sessions: session not found")
	ErrBusy     = errors.New("sessions: operation already in progress")
)

type entry struct {
	// op is held for the whole of an Update so one session never runs two
	// operations at once.
	op sync.Mutex

	mu       sync.Mutex
	session  domain.Session
	lastUsed time.Time
}

// Store maps session IDs to their conversation state. Sessions share nothing
// but the index; each entry is locked on its own.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	idleTTL time.Duration
	now     func() time.Time
	newID   func() string
}

func New(idleTTL time.Duration) *Store {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &Store{
		entries: make(map[string]*entry),
		idleTTL: idleTTL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create starts an empty session and returns its ID.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	id := s.newID()
	s.entries[id] = &entry{lastUsed: s.now()}
	return id
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (domain.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = s.now()
	return e.session, nil
}

// Update runs fn against the current session and commits its result only if
// fn succeeds. A second Update on the same session while one is running fails
// with ErrBusy instead of waiting.
func (s *Store) Update(id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error) {
	e, err := s.lookup(id)
	if err != nil {
		return domain.Session{}, err
	}
	if !e.op.TryLock() {
		return domain.Session{}, ErrBusy
	}
	defer e.op.Unlock()

	e.mu.Lock()
	current := e.session
	e.lastUsed = s.now()
	e.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	e.mu.Lock()
	e.session = next
	e.lastUsed = s.now()
	e.mu.Unlock()
	return next, nil
}

// Delete ends a session. Deleting an unknown ID is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.entries)
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// sweepLocked drops idle sessions. Sessions with an operation in flight are
// kept regardless of age.
func (s *Store) sweepLocked() {
	cutoff := s.now().Add(-s.idleTTL)
	for id, e := range s.entries {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if !idle {
			continue
		}
		if !e.op.TryLock() {
			continue
		}
		e.op.Unlock()
		delete(s.entries, id)
	}
}
