package content

import (
	"fmt"

	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// VariantSize names one of the resized image variants produced by the
// thumbnail worker.
//
// Clients request variants by token (small, medium, large); each token maps
// to a fixed pixel width. The mapping is part of the public API and must not
// change for stored content: variant blobs are keyed by width.
type VariantSize string

const (
	// VariantSmall is the 100px-wide thumbnail.
	VariantSmall VariantSize = "small"

	// VariantMedium is the 250px-wide thumbnail.
	VariantMedium VariantSize = "medium"

	// VariantLarge is the 500px-wide thumbnail.
	VariantLarge VariantSize = "large"
)

// VariantSizes lists all variants in ascending width order. The thumbnail
// worker generates exactly this set for every image upload.
var VariantSizes = []VariantSize{VariantSmall, VariantMedium, VariantLarge}

// Width returns the pixel width the variant is resized to. Height follows
// from the source aspect ratio.
func (v VariantSize) Width() int {
	switch v {
	case VariantSmall:
		return 100
	case VariantMedium:
		return 250
	case VariantLarge:
		return 500
	default:
		return 0
	}
}

// ParseVariantSize validates a client-supplied variant token.
//
// Returns ErrUnknownVariant for anything other than the three known tokens.
// The empty string is also rejected; callers handle "no variant requested"
// before parsing.
func ParseVariantSize(s string) (VariantSize, error) {
	switch VariantSize(s) {
	case VariantSmall, VariantMedium, VariantLarge:
		return VariantSize(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownVariant)
	}
}

// VariantContentID derives the content ID a variant blob is stored under.
//
// Format: "<primaryContentID>_<width>", e.g. "550e8400-..._100".
//
// Deriving the key from the primary ID (rather than storing per-variant
// references in metadata) keeps the File record stable and makes thumbnail
// generation idempotent: regenerating a variant overwrites the same key.
func VariantContentID(primary metadata.ContentID, v VariantSize) metadata.ContentID {
	return metadata.ContentID(fmt.Sprintf("%s_%d", primary, v.Width()))
}
