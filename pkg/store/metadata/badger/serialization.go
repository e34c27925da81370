package badger

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// Serialization Strategy
// ======================
//
// BadgerDB stores data as raw bytes, so we serialize Go structs before
// storing and deserialize when reading:
//
// 1. JSON Encoding (Complex Types)
//    - User and File records
//    - Pros: Human-readable, flexible schema evolution, easy debugging
//    - Cons: Larger size, slower than binary
//
// 2. Binary Encoding (Simple Types)
//    - Sequence counters (uint64 big-endian), UUID index values (raw bytes)
//    - Compact and fast; schema is stable
//
// JSON keeps the database debuggable with standard tooling; the hot-path
// values (index entries, counters) stay binary.

// encodeUser serializes a User to JSON bytes.
func encodeUser(user *metadata.User) ([]byte, error) {
	bytes, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return bytes, nil
}

// decodeUser deserializes a User from JSON bytes.
func decodeUser(bytes []byte) (*metadata.User, error) {
	var user metadata.User
	if err := json.Unmarshal(bytes, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// encodeFile serializes a File to JSON bytes.
func encodeFile(file *metadata.File) ([]byte, error) {
	bytes, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file: %w", err)
	}
	return bytes, nil
}

// decodeFile deserializes a File from JSON bytes.
func decodeFile(bytes []byte) (*metadata.File, error) {
	var file metadata.File
	if err := json.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("failed to decode file: %w", err)
	}
	return &file, nil
}

// encodeUint64 serializes a uint64 to 8 bytes using big-endian encoding.
//
// Big-endian keeps encoded values comparable in lexicographic ordering,
// matching BadgerDB's key iteration order.
func encodeUint64(value uint64) []byte {
	bytes := make([]byte, 8)
	binary.BigEndian.PutUint64(bytes, value)
	return bytes
}

// decodeUint64 deserializes a uint64 from 8 bytes using big-endian encoding.
func decodeUint64(bytes []byte) (uint64, error) {
	if len(bytes) != 8 {
		return 0, fmt.Errorf("invalid uint64 bytes: expected 8 bytes, got %d", len(bytes))
	}
	return binary.BigEndian.Uint64(bytes), nil
}

// UUID index values are stored as the 16 raw bytes of the UUID.

// encodeUUID serializes a UUID to its 16 raw bytes.
func encodeUUID(id [16]byte) []byte {
	out := make([]byte, 16)
	copy(out, id[:])
	return out
}

// decodeUUID deserializes a UUID from 16 raw bytes.
func decodeUUID(bytes []byte) ([16]byte, error) {
	var id [16]byte
	if len(bytes) != 16 {
		return id, fmt.Errorf("invalid uuid bytes: expected 16 bytes, got %d", len(bytes))
	}
	copy(id[:], bytes)
	return id, nil
}
