// Package sessionrepo provides the in-memory signup.SessionRepo used in
// production single-node deployments and in tests.
package sessionrepo

import (
	"context"
	"sync"
	"time"

	errorsx "github.com/grubsnap/identity/internal/errors"
	"github.com/grubsnap/identity/signup"
	gocache "github.com/patrickmn/go-cache"
)

var _ signup.SessionRepo = (*Memory)(nil)

// expiryGrace keeps a session retrievable for a while past its logical
// expiry so callers still observe SessionExpired instead of SessionNotFound.
const expiryGrace = time.Hour

// Memory is a signup.SessionRepo over an expiring in-process cache. A single
// mutex serializes all mutations, which makes Update linearizable per
// session: concurrent increment-then-check races cannot exceed the caps.
type Memory struct {
	mu sync.Mutex
	c  *gocache.Cache
}

// New creates a Memory repo. ttl is the signup session lifetime; entries are
// evicted one grace hour after that so expiry stays distinguishable from
// absence.
func New(ttl time.Duration) *Memory {
	return &Memory{
		c: gocache.New(ttl+expiryGrace, time.Minute),
	}
}

func (m *Memory) Put(_ context.Context, session *signup.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c.SetDefault(session.ID, cloneSession(session))
	return nil
}

func (m *Memory) Get(_ context.Context, sessionID string) (*signup.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	return cloneSession(stored), nil
}

func (m *Memory) Update(_ context.Context, sessionID string, fn func(*signup.Session) error) (*signup.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	// Mutate a copy; the stored session only changes if fn accepts.
	next := cloneSession(stored)
	if err := fn(next); err != nil {
		return nil, err
	}
	m.c.SetDefault(sessionID, next)
	return cloneSession(next), nil
}

func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.c.Delete(sessionID)
	return nil
}

// get must be called with the mutex held.
func (m *Memory) get(sessionID string) (*signup.Session, error) {
	v, ok := m.c.Get(sessionID)
	if !ok {
		return nil, errorsx.ErrSessionNotFound
	}
	stored, ok := v.(*signup.Session)
	if !ok {
		return nil, errorsx.ErrSessionNotFound
	}
	return stored, nil
}

func cloneSession(s *signup.Session) *signup.Session {
	out := *s
	return &out
}
