// Package memory implements an in-memory metadata store for DittoBox.
//
// This implementation keeps all user and file records in maps guarded by a
// single RWMutex. It's designed for:
//   - Testing and development
//   - Ephemeral single-process deployments
//
// Data is lost on restart; use the badger backend for persistence.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// childKey identifies one (owner, parent) directory for insertion-order
// tracking.
type childKey struct {
	owner  uuid.UUID
	parent uuid.UUID
}

// MemoryMetadataStore implements metadata.MetadataStore using in-memory maps.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Records are copied on
// read and write so callers can never mutate store state through returned
// pointers.
type MemoryMetadataStore struct {
	// users stores accounts keyed by ID
	users map[uuid.UUID]metadata.User

	// usersByEmail indexes users by their unique email
	usersByEmail map[string]uuid.UUID

	// files stores file records keyed by ID
	files map[uuid.UUID]metadata.File

	// children tracks insertion order per (owner, parent) for listing
	children map[childKey][]uuid.UUID

	// mu protects all maps above
	mu sync.RWMutex
}

// NewMemoryMetadataStore creates an empty in-memory metadata store.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	return &MemoryMetadataStore{
		users:        make(map[uuid.UUID]metadata.User),
		usersByEmail: make(map[string]uuid.UUID),
		files:        make(map[uuid.UUID]metadata.File),
		children:     make(map[childKey][]uuid.UUID),
	}
}

// ============================================================================
// User Operations
// ============================================================================

// CreateUser registers a new user with a unique email.
func (s *MemoryMetadataStore) CreateUser(ctx context.Context, email string, passwordHash []byte) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if email == "" {
		return nil, &metadata.StoreError{Code: metadata.CodeInvalidArgument, Message: "missing email"}
	}
	if len(passwordHash) == 0 {
		return nil, &metadata.StoreError{Code: metadata.CodeInvalidArgument, Message: "missing password hash"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByEmail[email]; exists {
		return nil, fmt.Errorf("user %s: %w", email, metadata.ErrAlreadyExists)
	}

	user := metadata.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		CreatedAt:    time.Now().UTC(),
	}

	s.users[user.ID] = user
	s.usersByEmail[email] = user.ID

	out := user
	return &out, nil
}

// GetUserByEmail looks a user up by login identifier.
func (s *MemoryMetadataStore) GetUserByEmail(ctx context.Context, email string) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, metadata.ErrNotFound)
	}

	user := s.users[id]
	return &user, nil
}

// GetUserByID looks a user up by identifier.
func (s *MemoryMetadataStore) GetUserByID(ctx context.Context, id uuid.UUID) (*metadata.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, metadata.ErrNotFound)
	}

	return &user, nil
}

// CountUsers returns the number of registered users.
func (s *MemoryMetadataStore) CountUsers(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.users)), nil
}

// ============================================================================
// File Operations
// ============================================================================

// CreateFile inserts a new file record, enforcing the parent invariant
// atomically with the insert (single lock scope).
func (s *MemoryMetadataStore) CreateFile(ctx context.Context, f metadata.File) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := metadata.ValidateNewFile(&f); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Parent invariant: existing folder owned by the same user, or root.
	if f.ParentID != metadata.RootFolderID {
		parent, ok := s.files[f.ParentID]
		if !ok || parent.OwnerID != f.OwnerID {
			return nil, fmt.Errorf("parent %s: %w", f.ParentID, metadata.ErrParentNotFound)
		}
		if parent.Type != metadata.FileTypeFolder {
			return nil, fmt.Errorf("parent %s: %w", f.ParentID, metadata.ErrParentNotFolder)
		}
	}

	f.ID = uuid.New()
	f.CreatedAt = time.Now().UTC()

	s.files[f.ID] = f

	key := childKey{owner: f.OwnerID, parent: f.ParentID}
	s.children[key] = append(s.children[key], f.ID)

	out := f
	return &out, nil
}

// GetFile retrieves a file record by ID.
func (s *MemoryMetadataStore) GetFile(ctx context.Context, id uuid.UUID) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}

	return &f, nil
}

// ListChildren returns one zero-indexed page of children in insertion order.
func (s *MemoryMetadataStore) ListChildren(ctx context.Context, ownerID, parentID uuid.UUID, page int) ([]metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if page < 0 {
		page = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[childKey{owner: ownerID, parent: parentID}]

	start := page * metadata.ListPageSize
	if start >= len(ids) {
		return []metadata.File{}, nil
	}

	end := min(start+metadata.ListPageSize, len(ids))

	out := make([]metadata.File, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, s.files[id])
	}

	return out, nil
}

// SetFileVisibility sets the public flag, idempotently.
func (s *MemoryMetadataStore) SetFileVisibility(ctx context.Context, id uuid.UUID, public bool) (*metadata.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, metadata.ErrNotFound)
	}

	f.Public = public
	s.files[id] = f

	return &f, nil
}

// CountFiles returns the number of file records.
func (s *MemoryMetadataStore) CountFiles(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.files)), nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryMetadataStore) Close() error {
	return nil
}
