package session

import "errors"

var (
	// ErrTokenNotFound indicates the token is unknown or expired.
	//
	// The two cases are deliberately merged: callers must not be able to
	// tell whether a token ever existed.
	ErrTokenNotFound = errors.New("session token not found")

	// ErrInvalidToken indicates a malformed Put: empty token or
	// non-positive TTL.
	ErrInvalidToken = errors.New("invalid session token")

	// ErrUnavailable indicates the backing store is unreachable or failed.
	// This is a transient error: retrying may succeed.
	ErrUnavailable = errors.New("session store unavailable")
)
