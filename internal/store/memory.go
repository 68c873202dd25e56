// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Sessions are per-player and short-lived, so they are never written to the
// database; a restart simply starts everyone on a fresh puzzle.
//
// Characteristics:
//   - Stores *game.Session objects keyed by ID in a map.
//   - Update runs the caller's mutation under the store lock, so one session
//     is only ever mutated by one request at a time.
//   - Sweep evicts sessions idle for longer than a cutoff.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/numble/internal/game"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Put stores a session, replacing any previous one with the same ID.
	Put(ctx context.Context, s *game.Session) error

	// Get returns a snapshot copy of the session.
	Get(ctx context.Context, id string) (game.Session, error)

	// Update applies fn to the stored session. The session must not escape fn.
	Update(ctx context.Context, id string, fn func(s *game.Session) error) error

	// Sweep removes sessions last updated before cutoff and returns how many.
	Sweep(cutoff time.Time) int

	// Len reports the number of live sessions.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.Mutex               // guards sessions and every session they hold
	sessions map[string]*game.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Put(ctx context.Context, s *game.Session) error {
	if s == nil || s.ID == "" {
		return errors.New("store: session requires an ID")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return game.Session{}, ErrNotFound
	}
	cp := *s
	cp.History = append([]game.GuessRecord(nil), s.History...)
	return cp, nil
}

func (m *memory) Update(ctx context.Context, id string, fn func(s *game.Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	return fn(s)
}

func (m *memory) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
