// Package badger implements a persistent metadata store backed by BadgerDB.
//
// This implementation provides a durable metadata repository backed by
// BadgerDB, a fast embedded key-value store. It is suitable for:
//   - Production environments requiring persistence across restarts
//   - Systems where metadata must survive server crashes
//   - Multi-GB metadata storage requirements
//
// Key Features:
//   - Persistent storage with crash recovery (WAL-based)
//   - ACID transactions for the parent-validation insert
//   - Efficient range scans for directory listings
//
// Storage Model:
// The store uses namespaced key prefixes to organize users, files, and the
// per-directory children index (see keys.go for the full schema).
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/mitchellh/mapstructure"
)

// BadgerMetadataStore implements metadata.MetadataStore using BadgerDB.
//
// Thread Safety:
// BadgerDB transactions provide snapshot isolation (MVCC), so no external
// locking is needed. Write transactions that race on the same keys fail with
// badger.ErrConflict; CreateUser and CreateFile retry those internally.
type BadgerMetadataStore struct {
	// db is the BadgerDB database handle (thread-safe, uses internal MVCC)
	db *badger.DB
}

// BadgerMetadataStoreConfig contains configuration for creating a BadgerDB
// metadata store.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files.
	// BadgerDB creates multiple files in this directory (value log, LSM tree, etc.)
	DBPath string `mapstructure:"db_path"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// maxConflictRetries bounds internal retries of write transactions that hit
// badger.ErrConflict.
const maxConflictRetries = 5

// NewBadgerMetadataStore creates a new BadgerDB-based metadata store.
//
// BadgerDB is opened at the configured path and will create the directory if
// it doesn't exist. The returned store is immediately ready for use and safe
// for concurrent access from multiple goroutines.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - config: Configuration including the DB path and cache sizes
//
// Returns:
//   - *BadgerMetadataStore: A new store instance ready for use
//   - error: Error if database initialization fails or context is cancelled
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)

	// Metadata records are small; compression overhead isn't worth it.
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}

	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerMetadataStore{db: db}, nil
}

// NewBadgerMetadataStoreFromMap creates a store from an untyped configuration
// map, as found in the server configuration file.
func NewBadgerMetadataStoreFromMap(ctx context.Context, settings map[string]any) (*BadgerMetadataStore, error) {
	var config BadgerMetadataStoreConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, fmt.Errorf("invalid badger metadata store config: %w", err)
	}
	if config.DBPath == "" {
		return nil, fmt.Errorf("badger metadata store requires db_path")
	}
	return NewBadgerMetadataStore(ctx, config)
}

// update runs fn in a write transaction, retrying on badger.ErrConflict and
// mapping backend failures to metadata.ErrUnavailable.
func (s *BadgerMetadataStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	return wrapBackendError(err)
}

// view runs fn in a read-only transaction, mapping backend failures to
// metadata.ErrUnavailable.
func (s *BadgerMetadataStore) view(fn func(txn *badger.Txn) error) error {
	return wrapBackendError(s.db.View(fn))
}

// wrapBackendError converts raw BadgerDB failures into ErrUnavailable while
// letting domain StoreErrors (and context errors) pass through untouched.
func wrapBackendError(err error) error {
	if err == nil {
		return nil
	}

	var storeErr *metadata.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %w", metadata.ErrUnavailable, err)
}

// ============================================================================
// User Operations
// ============================================================================

// CreateUser registers a new user with a unique email.
//
// The user record and the email index entry are written in one transaction,
// so the uniqueness check cannot race with a concurrent registration.
func (s *BadgerMetadataStore) CreateUser(ctx context.Context, email string, passwordHash []byte) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if email == "" {
		return nil, &metadata.StoreError{Code: metadata.CodeInvalidArgument, Message: "missing email"}
	}
	if len(passwordHash) == 0 {
		return nil, &metadata.StoreError{Code: metadata.CodeInvalidArgument, Message: "missing password hash"}
	}

	user := metadata.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		CreatedAt:    time.Now().UTC(),
	}

	err := s.update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyUserEmail(email))
		switch {
		case err == nil:
			return fmt.Errorf("user %s: %w", email, metadata.ErrAlreadyExists)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("failed to check email index: %w", err)
		}

		userBytes, err := encodeUser(&user)
		if err != nil {
			return err
		}
		if err := txn.Set(keyUser(user.ID), userBytes); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
		if err := txn.Set(keyUserEmail(email), encodeUUID(user.ID)); err != nil {
			return fmt.Errorf("failed to store email index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByEmail looks a user up by login identifier.
func (s *BadgerMetadataStore) GetUserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *metadata.User
	err := s.view(func(txn *badger.Txn) error {
		item, err := txn.Get(keyUserEmail(email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("user %s: %w", email, metadata.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read email index: %w", err)
		}

		var id uuid.UUID
		if err := item.Value(func(val []byte) error {
			raw, err := decodeUUID(val)
			if err != nil {
				return err
			}
			id = uuid.UUID(raw)
			return nil
		}); err != nil {
			return err
		}

		user, err = getUserTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserByID looks a user up by identifier.
func (s *BadgerMetadataStore) GetUserByID(ctx context.Context, id uuid.UUID) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *metadata.User
	err := s.view(func(txn *badger.Txn) error {
		var err error
		user, err = getUserTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CountUsers returns the number of registered users.
//
// Counting is a key-only prefix scan over the user namespace; values are
// never fetched.
func (s *BadgerMetadataStore) CountUsers(ctx context.Context) (uint64, error) {
	return s.countPrefix(ctx, []byte(prefixUser))
}

// getUserTxn fetches and decodes a user record within an open transaction.
func getUserTxn(txn *badger.Txn, id uuid.UUID) (*metadata.User, error) {
	item, err := txn.Get(keyUser(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, metadata.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}

	var user *metadata.User
	err = item.Value(func(val []byte) error {
		user, err = decodeUser(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ============================================================================
// File Operations
// ============================================================================

// CreateFile inserts a new file record, validating the parent within the
// same transaction as the insert.
//
// Three keys are written atomically: the file record, its children index
// entry, and the bumped per-directory sequence counter. On conflict or
// crash either all three land or none do.
func (s *BadgerMetadataStore) CreateFile(ctx context.Context, f metadata.File) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := metadata.ValidateNewFile(&f); err != nil {
		return nil, err
	}

	f.ID = uuid.New()
	f.CreatedAt = time.Now().UTC()

	err := s.update(func(txn *badger.Txn) error {
		// Parent invariant: existing folder owned by the same user, or root.
		if f.ParentID != metadata.RootFolderID {
			parent, err := getFileTxn(txn, f.ParentID)
			if errors.Is(err, metadata.ErrNotFound) {
				return fmt.Errorf("parent %s: %w", f.ParentID, metadata.ErrParentNotFound)
			}
			if err != nil {
				return err
			}
			if parent.OwnerID != f.OwnerID {
				return fmt.Errorf("parent %s: %w", f.ParentID, metadata.ErrParentNotFound)
			}
			if parent.Type != metadata.FileTypeFolder {
				return fmt.Errorf("parent %s: %w", f.ParentID, metadata.ErrParentNotFolder)
			}
		}

		seq, err := nextChildSeq(txn, f.OwnerID, f.ParentID)
		if err != nil {
			return err
		}

		fileBytes, err := encodeFile(&f)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(f.ID), fileBytes); err != nil {
			return fmt.Errorf("failed to store file: %w", err)
		}
		if err := txn.Set(keyChild(f.OwnerID, f.ParentID, seq), encodeUUID(f.ID)); err != nil {
			return fmt.Errorf("failed to store child index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// GetFile retrieves a file record by ID.
func (s *BadgerMetadataStore) GetFile(ctx context.Context, id uuid.UUID) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *metadata.File
	err := s.view(func(txn *badger.Txn) error {
		var err error
		file, err = getFileTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// ListChildren returns one zero-indexed page of children in insertion order.
//
// The children index keys sort by sequence number, so a single forward
// prefix scan yields insertion order. The scan skips page*ListPageSize
// entries and collects up to ListPageSize records; both the index walk and
// the record fetches happen in one snapshot.
func (s *BadgerMetadataStore) ListChildren(ctx context.Context, ownerID, parentID uuid.UUID, page int) ([]metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if page < 0 {
		page = 0
	}

	files := []metadata.File{}
	err := s.view(func(txn *badger.Txn) error {
		prefix := keyChildPrefix(ownerID, parentID)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		skip := page * metadata.ListPageSize
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if skip > 0 {
				skip--
				continue
			}
			if len(files) == metadata.ListPageSize {
				break
			}

			var childID uuid.UUID
			if err := it.Item().Value(func(val []byte) error {
				raw, err := decodeUUID(val)
				if err != nil {
					return err
				}
				childID = uuid.UUID(raw)
				return nil
			}); err != nil {
				return err
			}

			file, err := getFileTxn(txn, childID)
			if err != nil {
				return err
			}
			files = append(files, *file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// SetFileVisibility sets the public flag, idempotently.
func (s *BadgerMetadataStore) SetFileVisibility(ctx context.Context, id uuid.UUID, public bool) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *metadata.File
	err := s.update(func(txn *badger.Txn) error {
		f, err := getFileTxn(txn, id)
		if err != nil {
			return err
		}

		f.Public = public

		fileBytes, err := encodeFile(f)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(id), fileBytes); err != nil {
			return fmt.Errorf("failed to store file: %w", err)
		}

		file = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// CountFiles returns the number of file records.
func (s *BadgerMetadataStore) CountFiles(ctx context.Context) (uint64, error) {
	return s.countPrefix(ctx, []byte(prefixFile))
}

// getFileTxn fetches and decodes a file record within an open transaction.
func getFileTxn(txn *badger.Txn, id uuid.UUID) (*metadata.File, error) {
	item, err := txn.Get(keyFile(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file *metadata.File
	err = item.Value(func(val []byte) error {
		file, err = decodeFile(val)
		return err
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// nextChildSeq reads, bumps, and writes back the per-directory sequence
// counter within an open write transaction. The first child gets sequence 0.
func nextChildSeq(txn *badger.Txn, ownerID, parentID uuid.UUID) (uint64, error) {
	key := keyChildSeq(ownerID, parentID)

	var seq uint64
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		seq = 0
	case err != nil:
		return 0, fmt.Errorf("failed to read child sequence: %w", err)
	default:
		if err := item.Value(func(val []byte) error {
			seq, err = decodeUint64(val)
			return err
		}); err != nil {
			return 0, err
		}
	}

	if err := txn.Set(key, encodeUint64(seq+1)); err != nil {
		return 0, fmt.Errorf("failed to bump child sequence: %w", err)
	}

	return seq, nil
}

// countPrefix counts keys under a namespace prefix with a key-only scan.
func (s *BadgerMetadataStore) countPrefix(ctx context.Context, prefix []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count uint64
	err := s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ============================================================================
// Lifecycle
// ============================================================================

// Close closes the BadgerDB database and releases all resources.
//
// This should be called when the store is no longer needed, typically during
// server shutdown. After calling Close, the store must not be used.
func (s *BadgerMetadataStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
