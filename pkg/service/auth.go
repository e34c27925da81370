package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marmos91/dittobox/internal/logger"
	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/marmos91/dittobox/pkg/store/session"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new user account.
//
// The password is hashed with bcrypt before it reaches the metadata store;
// the plaintext is never persisted anywhere.
//
// Returns:
//   - *metadata.User: The created account
//   - error: CodeValidation for missing fields, CodeAlreadyExists for a
//     duplicate email, CodeTransient on backend failure
func (s *Service) Register(ctx context.Context, email, password string) (*metadata.User, error) {
	if email == "" {
		return nil, errValidation(msgMissingEmail)
	}
	if password == "" {
		return nil, errValidation(msgMissingPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errTransient(err)
	}

	user, err := s.metadata.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, metadata.ErrAlreadyExists) {
			return nil, &Error{Code: CodeAlreadyExists, Message: msgAlreadyExist}
		}
		return nil, errTransient(err)
	}

	logger.Info("Registered user %s", user.ID)
	return user, nil
}

// Login verifies credentials and opens a session.
//
// The returned token is an opaque bearer credential valid for the
// configured session TTL (session.DefaultTTL unless overridden). Unknown
// emails and wrong passwords produce the same CodeUnauthenticated error:
// callers can't probe which emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.metadata.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return "", errUnauthenticated()
		}
		return "", errTransient(err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", errUnauthenticated()
	}

	token := uuid.NewString()
	if err := s.sessions.Put(ctx, token, user.ID, s.sessionTTL); err != nil {
		return "", errTransient(err)
	}

	logger.Debug("Opened session for user %s", user.ID)
	return token, nil
}

// Logout ends the session for the given token.
//
// An unknown or expired token is CodeUnauthenticated, same as any other
// use of a bad token.
func (s *Service) Logout(ctx context.Context, token string) error {
	found, err := s.sessions.Delete(ctx, token)
	if err != nil {
		return errTransient(err)
	}
	if !found {
		return errUnauthenticated()
	}
	return nil
}

// Resolve authenticates a token and returns the session's user.
//
// Unknown tokens, expired tokens, and tokens whose user has vanished all
// produce CodeUnauthenticated.
func (s *Service) Resolve(ctx context.Context, token string) (*metadata.User, error) {
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrTokenNotFound) {
			return nil, errUnauthenticated()
		}
		return nil, errTransient(err)
	}

	user, err := s.metadata.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, errUnauthenticated()
		}
		return nil, errTransient(err)
	}

	return user, nil
}

// resolveOptional maps a token to a requester identity for the download
// path, where anonymous access is legitimate.
//
// An empty, unknown, or expired token yields uuid.Nil (anonymous) rather
// than an error; only backend failures propagate. Public files stay
// readable to clients with stale tokens.
func (s *Service) resolveOptional(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, nil
	}

	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrTokenNotFound) {
			return uuid.Nil, nil
		}
		return uuid.Nil, errTransient(err)
	}

	return userID, nil
}
