package metadata

// StoreError represents a domain error from metadata store operations.
//
// These are business logic errors (record not found, duplicate email,
// invalid parent) as opposed to infrastructure errors (disk failure,
// backend unreachable). The service layer translates StoreError codes into
// its own outcome taxonomy; infrastructure failures are reported with
// ErrUnavailable so callers can distinguish "does not exist" from
// "backend down".
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is makes StoreError comparable by code via errors.Is, so callers can
// match against the sentinel errors below without losing the message.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	return ok && t.Code == e.Code
}

// ErrorCode represents the category of a metadata store error.
type ErrorCode int

const (
	// CodeNotFound indicates the requested user or file doesn't exist
	CodeNotFound ErrorCode = iota

	// CodeAlreadyExists indicates a unique constraint violation
	// (currently only duplicate user email)
	CodeAlreadyExists

	// CodeInvalidArgument indicates invalid parameters were provided
	// Examples: empty name, unknown file type, content mismatch with type
	CodeInvalidArgument

	// CodeParentNotFound indicates the named parent doesn't exist or is
	// not owned by the caller (deliberately indistinguishable, to avoid
	// leaking other users' folder IDs)
	CodeParentNotFound

	// CodeParentNotFolder indicates the named parent exists but is not a
	// folder-type record
	CodeParentNotFolder

	// CodeUnavailable indicates the backing store is unreachable or
	// failed; the operation may succeed if retried
	CodeUnavailable
)

// Sentinel errors for errors.Is matching. Implementations wrap these with
// record-specific messages.
var (
	ErrNotFound        = &StoreError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists   = &StoreError{Code: CodeAlreadyExists, Message: "already exists"}
	ErrInvalidArgument = &StoreError{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrParentNotFound  = &StoreError{Code: CodeParentNotFound, Message: "parent not found"}
	ErrParentNotFolder = &StoreError{Code: CodeParentNotFolder, Message: "parent is not a folder"}
	ErrUnavailable     = &StoreError{Code: CodeUnavailable, Message: "metadata store unavailable"}
)
