package badger

import (
	"fmt"

	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize different
// data types into logical namespaces. This design:
//   - Prevents key collisions between different data types
//   - Enables efficient range scans (e.g., all children of a folder)
//   - Makes the database structure self-documenting
//   - Supports future extensions without schema changes
//
// Key Namespace Prefixes:
//
// Data Type           Prefix   Key Format                             Value Type
// ================================================================================
// User Data           "u:"     u:<uuid>                               User (JSON)
// Email Index         "ue:"    ue:<email>                             userUUID (bytes)
// File Data           "f:"     f:<uuid>                               File (JSON)
// Children Index      "c:"     c:<ownerUUID>:<parentUUID>:<seq>       fileUUID (bytes)
// Children Sequence   "cs:"    cs:<ownerUUID>:<parentUUID>            uint64 (binary)
//
// Key Design Rationale:
//
// 1. User Data (u:) / Email Index (ue:)
//    - One entry per account, point lookup by ID: O(1)
//    - The email index makes the uniqueness check and login lookup O(1)
//      without scanning; both entries are written in one transaction
//
// 2. File Data (f:)
//    - One entry per file/folder, stores the complete File struct
//    - Point lookup by UUID: O(1)
//
// 3. Children Index (c:)
//    - Denormalized: one entry per child under its (owner, parent) pair
//    - The sequence component is a zero-padded, fixed-width decimal so
//      lexicographic key order equals insertion order, which is what
//      BadgerDB iterates in. Listing a page is a bounded range scan.
//    - Example: c:<owner>:<parent>:00000000000000000042 → child-uuid
//
// 4. Children Sequence (cs:)
//    - Per-(owner, parent) monotonic counter, bumped inside the same
//      transaction that inserts the child. Never decremented.

const (
	// prefixUser is the key prefix for user data (User struct)
	prefixUser = "u:"

	// prefixUserEmail is the key prefix for the email → user ID index
	prefixUserEmail = "ue:"

	// prefixFile is the key prefix for file data (File struct)
	prefixFile = "f:"

	// prefixChild is the key prefix for children index entries
	prefixChild = "c:"

	// prefixChildSeq is the key prefix for per-directory sequence counters
	prefixChildSeq = "cs:"
)

// keyUser generates a key for user data.
//
// Format: "u:<uuid>"
func keyUser(id uuid.UUID) []byte {
	return []byte(prefixUser + id.String())
}

// keyUserEmail generates a key for the email index.
//
// Format: "ue:<email>"
func keyUserEmail(email string) []byte {
	return []byte(prefixUserEmail + email)
}

// keyFile generates a key for file data.
//
// Format: "f:<uuid>"
func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

// keyChild generates a key for a child entry under an (owner, parent) pair.
//
// Format: "c:<ownerUUID>:<parentUUID>:<seq>"
//
// The sequence is formatted as a 20-digit zero-padded decimal (the width of
// the largest uint64) so lexicographic order matches numeric order.
func keyChild(ownerID, parentID uuid.UUID, seq uint64) []byte {
	return fmt.Appendf(nil, "%s%s:%s:%020d", prefixChild, ownerID, parentID, seq)
}

// keyChildPrefix generates a key prefix for range scanning the children of
// an (owner, parent) pair.
//
// Format: "c:<ownerUUID>:<parentUUID>:"
func keyChildPrefix(ownerID, parentID uuid.UUID) []byte {
	return fmt.Appendf(nil, "%s%s:%s:", prefixChild, ownerID, parentID)
}

// keyChildSeq generates the key for the per-directory sequence counter.
//
// Format: "cs:<ownerUUID>:<parentUUID>"
func keyChildSeq(ownerID, parentID uuid.UUID) []byte {
	return fmt.Appendf(nil, "%s%s:%s", prefixChildSeq, ownerID, parentID)
}
