// Package http exposes the DittoBox service over a JSON HTTP API.
//
// Routes:
//
//	POST /users                  register an account
//	GET  /connect                log in (Basic auth), returns a token
//	GET  /disconnect             log out (X-Token header)
//	GET  /users/me               the authenticated account
//	POST /files                  upload a folder, file, or image
//	GET  /files                  list children (parentId, page query params)
//	GET  /files/{id}             file metadata (owner only)
//	PUT  /files/{id}/publish     make a file public
//	PUT  /files/{id}/unpublish   make a file private
//	GET  /files/{id}/data        download content (optional size param)
//	GET  /status                 backend liveness
//	GET  /stats                  user and file counters
//
// Authenticated routes read the session token from the X-Token header.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/service"
)

// tokenHeader carries the session token on authenticated requests.
const tokenHeader = "X-Token"

// Server wraps the service with an HTTP transport.
type Server struct {
	svc  *service.Service
	http *http.Server
}

// NewServer creates a server listening on addr once Start is called.
func NewServer(svc *service.Service, addr string) *Server {
	s := &Server{svc: svc}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi route table. Exposed separately so tests can drive
// the handlers through httptest without a listening socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/users", s.handleRegister)
	r.Get("/connect", s.handleConnect)
	r.Get("/disconnect", s.handleDisconnect)
	r.Get("/users/me", s.handleMe)

	r.Route("/files", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGetFile)
		r.Put("/{id}/publish", s.handlePublish)
		r.Put("/{id}/unpublish", s.handleUnpublish)
		r.Get("/{id}/data", s.handleDownload)
	})

	r.Get("/status", s.handleStatus)
	r.Get("/stats", s.handleStats)

	return r
}

// Start begins serving requests. Blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	logger.Info("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
