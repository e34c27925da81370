package metadata

import (
	"time"

	"github.com/google/uuid"
)

// FileType is the kind of record a File describes.
//
// The type is fixed at creation and determines whether the record carries
// content: folders never reference a content blob, plain files and images
// always do. This makes folder-vs-content-bearing records structurally
// distinct instead of relying on field presence checks.
type FileType string

const (
	// FileTypeFolder is a container for other files. Carries no content.
	FileTypeFolder FileType = "folder"

	// FileTypeFile is a plain file with an opaque content blob.
	FileTypeFile FileType = "file"

	// FileTypeImage is an image file. In addition to its primary content
	// blob it gains resized variants produced by the thumbnail worker.
	FileTypeImage FileType = "image"
)

// Valid reports whether t is one of the three known file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	default:
		return false
	}
}

// HasContent reports whether records of this type reference a content blob.
func (t FileType) HasContent() bool {
	return t == FileTypeFile || t == FileTypeImage
}

// ContentID is an opaque identifier for a content blob in the content store.
//
// Content IDs are generated fresh for every upload (UUID v4) and are
// deliberately decoupled from the File ID: content keys can be rotated or
// migrated without touching file identity, and a retried upload can never
// collide with an existing blob.
type ContentID string

// NewContentID generates a fresh, globally unique content identifier.
func NewContentID() ContentID {
	return ContentID(uuid.NewString())
}

// RootFolderID is the parent sentinel for files at the top level of a
// user's tree. It is not a real record: lookups of RootFolderID fail, and
// only the parent-validation logic treats it specially.
var RootFolderID = uuid.Nil

// ListPageSize is the fixed number of children returned per listing page.
const ListPageSize = 20

// User is an account that owns files.
//
// Users are created by registration and immutable afterwards. The password
// is stored only as a one-way hash (bcrypt); the store never sees the
// plaintext.
type User struct {
	// ID is a unique identifier, generated with UUID v4.
	ID uuid.UUID `json:"id"`

	// Email is the login identifier. Unique across all users.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"password_hash"`

	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"created_at"`
}

// File is the metadata record for a folder, plain file, or image.
//
// Identity and structure are immutable once assigned; Public is the only
// caller-mutable field. Content variants (thumbnails) live in the content
// store under keys derived from ContentID and are not tracked here.
type File struct {
	// ID is a unique identifier, generated with UUID v4 at creation.
	ID uuid.UUID `json:"id"`

	// OwnerID references the User that created the file.
	OwnerID uuid.UUID `json:"owner_id"`

	// Name is the caller-supplied display name. Not unique; used for
	// MIME type detection on download.
	Name string `json:"name"`

	// Type is the record kind (folder, file, image). Fixed at creation.
	Type FileType `json:"type"`

	// ParentID references an existing folder owned by the same user,
	// or RootFolderID for top-level files.
	ParentID uuid.UUID `json:"parent_id"`

	// Public controls read access for non-owners. Mutable via
	// SetFileVisibility; defaults to false (private).
	Public bool `json:"public"`

	// ContentID references the primary content blob. Empty exactly when
	// Type is folder.
	ContentID ContentID `json:"content_id,omitempty"`

	// CreatedAt is the upload time.
	CreatedAt time.Time `json:"created_at"`
}
