package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all content store implementations. The service layer checks for
// them with errors.Is and maps them to its own outcome taxonomy.
//
// Implementations should wrap these errors with additional context:
//
//	if !fileExists {
//	    return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
//	}

var (
	// ErrContentNotFound indicates the requested content does not exist.
	//
	// Returned by ReadContent and GetContentSize for unknown IDs. Note that
	// ContentExists reports absence as (false, nil), not as this error.
	ErrContentNotFound = errors.New("content not found")

	// ErrUnknownVariant indicates an unrecognized variant size token.
	//
	// Returned by ParseVariantSize for anything other than the known
	// small/medium/large tokens.
	ErrUnknownVariant = errors.New("unknown content variant")

	// ErrUnavailable indicates the storage backend is temporarily
	// unavailable (network failure, disk error, maintenance).
	//
	// This is a transient error: retrying may succeed.
	ErrUnavailable = errors.New("content store unavailable")
)
