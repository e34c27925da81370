package metadata

import "github.com/google/uuid"

// ValidateNewFile checks the record-local invariants for a file about to be
// inserted. Parent validation needs store access and is left to the backend.
//
// Shared by all MetadataStore implementations so every backend rejects the
// same inputs with the same codes.
func ValidateNewFile(f *File) error {
	if f.OwnerID == uuid.Nil {
		return &StoreError{Code: CodeInvalidArgument, Message: "missing owner"}
	}
	if f.Name == "" {
		return &StoreError{Code: CodeInvalidArgument, Message: "missing name"}
	}
	if !f.Type.Valid() {
		return &StoreError{Code: CodeInvalidArgument, Message: "invalid file type"}
	}
	if f.Type.HasContent() && f.ContentID == "" {
		return &StoreError{Code: CodeInvalidArgument, Message: "missing content reference"}
	}
	if !f.Type.HasContent() && f.ContentID != "" {
		return &StoreError{Code: CodeInvalidArgument, Message: "folders cannot carry content"}
	}
	return nil
}
