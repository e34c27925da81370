// Package badger implements a persistent session store backed by BadgerDB.
//
// Expiry uses BadgerDB's native entry TTL: the database hides expired keys
// from reads and reclaims them during compaction, so no sweeper goroutine
// is needed and sessions survive restarts with their original deadlines.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/session"
	"github.com/mitchellh/mapstructure"
)

// prefixSession is the key prefix for session entries.
//
// Format: "s:<token>" → userUUID (16 raw bytes), with a BadgerDB entry TTL.
const prefixSession = "s:"

// BadgerSessionStore implements session.SessionStore using BadgerDB.
type BadgerSessionStore struct {
	db *badger.DB
}

// BadgerSessionStoreConfig contains configuration for the BadgerDB session
// store.
type BadgerSessionStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files.
	// Must be distinct from other BadgerDB stores' paths.
	DBPath string `mapstructure:"db_path"`
}

// NewBadgerSessionStore creates a new BadgerDB-backed session store.
func NewBadgerSessionStore(ctx context.Context, config BadgerSessionStoreConfig) (*BadgerSessionStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	// Session entries are tiny; keep the caches small.
	opts = opts.WithBlockCacheSize(16 << 20)
	opts = opts.WithIndexCacheSize(8 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerSessionStore{db: db}, nil
}

// NewBadgerSessionStoreFromMap creates a store from an untyped configuration
// map, as found in the server configuration file.
func NewBadgerSessionStoreFromMap(ctx context.Context, settings map[string]any) (*BadgerSessionStore, error) {
	var config BadgerSessionStoreConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, fmt.Errorf("invalid badger session store config: %w", err)
	}
	if config.DBPath == "" {
		return nil, fmt.Errorf("badger session store requires db_path")
	}
	return NewBadgerSessionStore(ctx, config)
}

// keySession generates the database key for a token.
func keySession(token string) []byte {
	return []byte(prefixSession + token)
}

// Put stores a token-to-user mapping with a native BadgerDB entry TTL.
func (s *BadgerSessionStore) Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if token == "" || ttl <= 0 {
		return session.ErrInvalidToken
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(keySession(token), userID[:]).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to store session: %w", session.ErrUnavailable, err)
	}

	return nil
}

// Get resolves a token to its user.
//
// BadgerDB hides expired entries from reads, so expired and unknown tokens
// both surface as ErrKeyNotFound.
func (s *BadgerSessionStore) Get(ctx context.Context, token string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	var userID uuid.UUID
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySession(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 16 {
				return fmt.Errorf("invalid session value: expected 16 bytes, got %d", len(val))
			}
			copy(userID[:], val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return uuid.Nil, session.ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: failed to read session: %w", session.ErrUnavailable, err)
	}

	return userID, nil
}

// Delete removes a token, reporting whether it existed and was unexpired.
func (s *BadgerSessionStore) Delete(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keySession(token))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil
		case err != nil:
			return err
		}

		found = true
		return txn.Delete(keySession(token))
	})
	if err != nil {
		return false, fmt.Errorf("%w: failed to delete session: %w", session.ErrUnavailable, err)
	}

	return found, nil
}

// Close closes the BadgerDB database and releases all resources.
func (s *BadgerSessionStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
