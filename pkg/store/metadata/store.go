package metadata

import (
	"context"

	"github.com/google/uuid"
)

// ============================================================================
// MetadataStore Interface
// ============================================================================

// MetadataStore provides durable storage for user accounts and file records.
//
// This interface abstracts the metadata backend (in-memory, BadgerDB, ...)
// behind storage-agnostic operations. It manages only metadata: file content
// lives in a separate content store, referenced through ContentID.
//
// Separation of Concerns:
//
// The metadata store manages record identity, ownership, hierarchy, and
// visibility. It does NOT manage:
//   - File content (bytes) → handled by the content store
//   - Sessions/tokens → handled by the session store
//   - Access-control decisions → evaluated by the service layer from the
//     records this store returns
//
// Content Coordination:
// CreateFile records a ContentID that the caller has ALREADY written to the
// content store. The upload pipeline's ordering invariant (content first,
// metadata second) guarantees no record ever references missing content;
// the store itself only validates that the reference is present or absent
// as required by the file type.
//
// Hierarchy Invariant:
// A file's parent, when not RootFolderID, must reference an existing
// folder-type record owned by the same user. CreateFile enforces this
// atomically with the insert: either the full record is durably stored, or
// nothing is.
//
// Listing Order:
// ListChildren returns children in insertion order with a fixed page size
// (ListPageSize). Ordering is stable for a quiescent directory; under
// concurrent inserts the boundary between pages is best-effort.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type MetadataStore interface {
	// ========================================================================
	// User Operations
	// ========================================================================

	// CreateUser registers a new user.
	//
	// The email must be unique; the password hash is stored as given
	// (hashing is the caller's concern).
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - email: Login identifier, must be non-empty and unique
	//   - passwordHash: One-way hash of the user's password
	//
	// Returns:
	//   - *User: The created user with an assigned ID
	//   - error: ErrAlreadyExists if the email is taken, ErrInvalidArgument
	//     for empty fields, ErrUnavailable on backend failure
	CreateUser(ctx context.Context, email string, passwordHash []byte) (*User, error)

	// GetUserByEmail looks a user up by login identifier.
	//
	// Returns ErrNotFound if no user has the given email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID looks a user up by identifier.
	//
	// Returns ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// CountUsers returns the total number of registered users.
	CountUsers(ctx context.Context) (uint64, error)

	// ========================================================================
	// File Operations
	// ========================================================================

	// CreateFile inserts a new file record and assigns its ID.
	//
	// The caller provides everything except ID and CreatedAt, which the
	// store assigns. Validation performed atomically with the insert:
	//   - Name non-empty, Type valid (ErrInvalidArgument)
	//   - ContentID present iff Type.HasContent() (ErrInvalidArgument)
	//   - ParentID is RootFolderID, or references an existing record
	//     (ErrParentNotFound) owned by f.OwnerID (also ErrParentNotFound,
	//     to avoid leaking foreign folder IDs) of type folder
	//     (ErrParentNotFolder)
	//
	// Returns:
	//   - *File: The stored record with assigned ID
	//   - error: Validation errors above, or ErrUnavailable
	CreateFile(ctx context.Context, f File) (*File, error)

	// GetFile retrieves a file record by ID.
	//
	// No access control is applied here; the service layer decides what
	// the requester may see.
	//
	// Returns ErrNotFound if the record doesn't exist.
	GetFile(ctx context.Context, id uuid.UUID) (*File, error)

	// ListChildren returns one page of the files owned by ownerID whose
	// parent is parentID, in insertion order.
	//
	// Pages are zero-indexed with a fixed size of ListPageSize. A page
	// beyond the end returns an empty slice, not an error.
	ListChildren(ctx context.Context, ownerID, parentID uuid.UUID, page int) ([]File, error)

	// SetFileVisibility sets the public flag on a file record.
	//
	// Idempotent: applying the current value is not an error and returns
	// the unchanged record.
	//
	// Returns:
	//   - *File: The updated record
	//   - error: ErrNotFound if the record doesn't exist, or ErrUnavailable
	SetFileVisibility(ctx context.Context, id uuid.UUID, public bool) (*File, error)

	// CountFiles returns the total number of file records.
	CountFiles(ctx context.Context) (uint64, error)

	// ========================================================================
	// Lifecycle
	// ========================================================================

	// Close releases backend resources. The store must not be used after
	// Close returns.
	Close() error
}
