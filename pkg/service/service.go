// Package service implements the DittoBox business logic: account
// registration, token-based sessions, the file upload pipeline, access
// control, and content delivery.
//
// The service is a plain struct over four injected dependencies (metadata
// store, content store, session store, job queue); nothing in this package
// knows about HTTP or any other transport.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/dittobox/pkg/queue"
	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/marmos91/dittobox/pkg/store/session"
)

// Service coordinates the stores and the job queue behind the public
// operations. All methods are safe for concurrent use.
type Service struct {
	metadata   metadata.MetadataStore
	content    content.WritableContentStore
	sessions   session.SessionStore
	queue      queue.Queue
	sessionTTL time.Duration
}

// New assembles a Service from its dependencies.
func New(
	metadataStore metadata.MetadataStore,
	contentStore content.WritableContentStore,
	sessionStore session.SessionStore,
	jobQueue queue.Queue,
) *Service {
	return &Service{
		metadata:   metadataStore,
		content:    contentStore,
		sessions:   sessionStore,
		queue:      jobQueue,
		sessionTTL: session.DefaultTTL,
	}
}

// SetSessionTTL overrides the lifetime of sessions opened by Login.
// Non-positive values are ignored. Call before serving requests.
func (s *Service) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
}

// Stats reports aggregate counters for the monitoring endpoints.
type Stats struct {
	Users uint64 `json:"users"`
	Files uint64 `json:"files"`
}

// GetStats returns the total number of users and files.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	users, err := s.metadata.CountUsers(ctx)
	if err != nil {
		return nil, errTransient(err)
	}

	files, err := s.metadata.CountFiles(ctx)
	if err != nil {
		return nil, errTransient(err)
	}

	return &Stats{Users: users, Files: files}, nil
}

// Health reports per-backend liveness for the status endpoint.
//
// The session probe uses a token that cannot exist; a not-found answer
// proves the store responded.
func (s *Service) Health(ctx context.Context) map[string]bool {
	health := make(map[string]bool, 2)

	_, err := s.metadata.CountUsers(ctx)
	health["metadata"] = err == nil

	_, err = s.sessions.Get(ctx, "health-probe")
	health["sessions"] = err == nil || errors.Is(err, session.ErrTokenNotFound)

	return health
}
