// Package memory implements an in-memory session store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/session"
)

// sweepInterval is how often the background sweeper evicts expired entries.
// Expiry correctness doesn't depend on it: Get checks deadlines itself. The
// sweeper only bounds memory growth from abandoned tokens.
const sweepInterval = time.Minute

// entry is a stored session with its absolute expiry deadline.
type entry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemorySessionStore implements session.SessionStore using an in-memory map.
//
// Sessions are lost on restart, forcing clients to log in again. Use the
// badger backend when sessions must survive restarts.
type MemorySessionStore struct {
	sessions map[string]entry
	mu       sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemorySessionStore creates an in-memory session store and starts its
// expiry sweeper. Call Close to stop the sweeper.
func NewMemorySessionStore() *MemorySessionStore {
	s := &MemorySessionStore{
		sessions: make(map[string]entry),
		stop:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// sweep periodically evicts expired entries until Close is called.
func (s *MemorySessionStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for token, e := range s.sessions {
				if now.After(e.expiresAt) {
					delete(s.sessions, token)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Put stores a token-to-user mapping that expires after ttl.
func (s *MemorySessionStore) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if token == "" || ttl <= 0 {
		return session.ErrInvalidToken
	}

	s.mu.Lock()
	s.sessions[token] = entry{
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()

	return nil
}

// Get resolves a token to its user, treating expired tokens as unknown.
func (s *MemorySessionStore) Get(ctx context.Context, token string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return uuid.Nil, session.ErrTokenNotFound
	}

	return e.userID, nil
}

// Delete removes a token, reporting whether it existed and was unexpired.
func (s *MemorySessionStore) Delete(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	e, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	return ok && !time.Now().After(e.expiresAt), nil
}

// Close stops the expiry sweeper. Safe to call more than once.
func (s *MemorySessionStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
