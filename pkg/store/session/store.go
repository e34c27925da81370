// Package session defines the session store interface for DittoBox.
//
// A session maps an opaque bearer token to the authenticated user. Sessions
// expire on a fixed deadline set at creation; there is no sliding renewal,
// so a token's lifetime is always exactly the TTL it was stored with.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of a session created by login.
const DefaultTTL = 24 * time.Hour

// SessionStore provides expiring token-to-user storage.
//
// Tokens are opaque to the store: it never parses or validates them beyond
// equality. Expiry is enforced on read: a Get after the deadline behaves
// exactly like a Get for a token that never existed.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines.
type SessionStore interface {
	// Put stores a token-to-user mapping that expires after ttl.
	//
	// Storing an existing token overwrites its mapping and resets the
	// deadline. The caller generates tokens with enough entropy that this
	// never happens in practice.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - token: Opaque session token, must be non-empty
	//   - userID: The authenticated user
	//   - ttl: Session lifetime, must be positive
	//
	// Returns:
	//   - error: ErrInvalidToken for an empty token or non-positive ttl,
	//     ErrUnavailable on backend failure
	Put(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error

	// Get resolves a token to its user.
	//
	// Returns ErrTokenNotFound for unknown AND expired tokens: the two
	// cases are deliberately indistinguishable.
	Get(ctx context.Context, token string) (uuid.UUID, error)

	// Delete removes a token, ending the session.
	//
	// Returns whether the token existed (and was unexpired) at the time of
	// deletion. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) (bool, error)

	// Close releases backend resources.
	Close() error
}
