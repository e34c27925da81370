package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/service"
	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// ============================================================================
// Account Handlers
// ============================================================================

// handleRegister creates an account.
//
// POST /users {"email": ..., "password": ...} → 201 {"id", "email"}
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	user, err := s.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderUser(user))
}

// handleConnect logs in with Basic auth and returns a session token.
//
// GET /connect → 200 {"token": ...}
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	token, err := s.svc.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleDisconnect ends the session for the X-Token header.
//
// GET /disconnect → 204
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), r.Header.Get(tokenHeader)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the authenticated account.
//
// GET /users/me → 200 {"id", "email"}
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.Resolve(r.Context(), r.Header.Get(tokenHeader))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderUser(user))
}

// ============================================================================
// File Handlers
// ============================================================================

// authenticate resolves the X-Token header, writing the 401 on failure.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*metadata.User, bool) {
	user, err := s.svc.Resolve(r.Context(), r.Header.Get(tokenHeader))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return user, true
}

// fileIDParam parses the {id} path parameter, writing the 404 on failure.
// A malformed ID reads the same as a missing file.
func fileIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return uuid.Nil, false
	}
	return id, true
}

// handleUpload runs the upload pipeline.
//
// POST /files {"name", "type", "parentId", "isPublic", "data"} → 201 file
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	// Wire-level parse failures must not preempt the service's field
	// validation order: a request that is also missing a name still
	// reports the name first. An unparseable parent can't match any
	// folder, so it degrades to an ID that doesn't exist; an undecodable
	// payload reads as absent.
	parentID, ok := parseParentID(req.ParentID)
	if !ok {
		parentID = uuid.New()
	}

	data, ok := decodeData(req.Data)
	if !ok {
		data = nil
	}

	result, err := s.svc.Upload(r.Context(), user.ID, service.UploadParams{
		Name:     req.Name,
		Type:     metadata.FileType(req.Type),
		ParentID: parentID,
		Public:   req.IsPublic,
		Data:     data,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, renderFile(result.File))
}

// handleGetFile returns a file record to its owner.
//
// GET /files/{id} → 200 file
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	file, err := s.svc.GetFile(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderFile(file))
}

// handleList returns one page of the owner's files under a parent.
//
// GET /files?parentId=...&page=N → 200 [file, ...]
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	parentID, ok := parseParentID(r.URL.Query().Get("parentId"))
	if !ok {
		// Unknown parent folders list as empty, and so do unparseable ones.
		writeJSON(w, http.StatusOK, []fileResponse{})
		return
	}

	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil && parsed > 0 {
			page = parsed
		}
	}

	files, err := s.svc.ListFiles(r.Context(), user.ID, parentID, page)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for i := range files {
		out = append(out, renderFile(&files[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// handlePublish makes a file public.
//
// PUT /files/{id}/publish → 200 file
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	s.handleSetVisibility(w, r, true)
}

// handleUnpublish makes a file private.
//
// PUT /files/{id}/unpublish → 200 file
func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	s.handleSetVisibility(w, r, false)
}

func (s *Server) handleSetVisibility(w http.ResponseWriter, r *http.Request, public bool) {
	user, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	id, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	file, err := s.svc.SetVisibility(r.Context(), user.ID, id, public)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderFile(file))
}

// handleDownload streams file content.
//
// GET /files/{id}/data?size=small|medium|large → 200 bytes
//
// The only route where anonymous requests are legitimate: access control
// happens in the service against the (optional) X-Token header. The
// Content-Type is detected from the file name's extension.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, ok := fileIDParam(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Download(r.Context(), r.Header.Get(tokenHeader), id, r.URL.Query().Get("size"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = result.Content.Close() }()

	contentType := mime.TypeByExtension(filepath.Ext(result.File.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatUint(result.Size, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, result.Content); err != nil {
		// Headers are gone; all we can do is log.
		logger.Warn("Download of %s interrupted: %v", id, err)
	}
}

// ============================================================================
// Monitoring Handlers
// ============================================================================

// handleStatus reports backend liveness.
//
// GET /status → 200 {"metadata": bool, "sessions": bool}
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health := s.svc.Health(r.Context())

	status := http.StatusOK
	for _, alive := range health {
		if !alive {
			status = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, status, health)
}

// handleStats reports aggregate counters.
//
// GET /stats → 200 {"users": N, "files": N}
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
