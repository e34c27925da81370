package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/service"
	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// rootParentToken is the wire sentinel for "no parent folder". The API
// speaks "0" where the service speaks metadata.RootFolderID.
const rootParentToken = "0"

// registerRequest is the POST /users body.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// uploadRequest is the POST /files body. Data carries base64-encoded
// content for file and image uploads.
type uploadRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

// userResponse is the wire shape of an account.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// fileResponse is the wire shape of a file record.
type fileResponse struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

// renderUser converts a metadata record to its wire shape.
func renderUser(user *metadata.User) userResponse {
	return userResponse{ID: user.ID.String(), Email: user.Email}
}

// renderFile converts a metadata record to its wire shape, mapping the
// root sentinel back to "0".
func renderFile(file *metadata.File) fileResponse {
	parent := rootParentToken
	if file.ParentID != metadata.RootFolderID {
		parent = file.ParentID.String()
	}
	return fileResponse{
		ID:       file.ID.String(),
		UserID:   file.OwnerID.String(),
		Name:     file.Name,
		Type:     string(file.Type),
		IsPublic: file.Public,
		ParentID: parent,
	}
}

// parseParentID maps the wire parent token to a service-level parent ID.
// Empty and "0" both mean the root; anything else must be a UUID.
func parseParentID(s string) (uuid.UUID, bool) {
	if s == "" || s == rootParentToken {
		return metadata.RootFolderID, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// decodeData decodes the base64 content field. An empty field decodes to
// nil so the service reports "Missing data" with the rest of the
// validation chain.
func decodeData(s string) ([]byte, bool) {
	if s == "" {
		return nil, true
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, false
	}
	return data, true
}

// writeJSON renders a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

// writeError renders {"error": message} with the status derived from the
// service error code.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := "Internal server error"

	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	}

	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service error codes onto HTTP status codes.
func statusFor(err error) int {
	switch service.CodeOf(err) {
	case service.CodeUnauthenticated:
		return http.StatusUnauthorized
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeAlreadyExists:
		return http.StatusBadRequest
	case service.CodeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
