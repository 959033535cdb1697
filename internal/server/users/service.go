// Package users verifies credentials and manages user records on top of a
// Directory.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
)

type PasswordHasher interface {
	Hash(plaintext string) ([]byte, error)
	Verify(plaintext string, hashed []byte) bool
}

type TokenIssuer interface {
	Issue(subject string, isAdmin bool, now time.Time) (string, error)
}

type Service struct {
	dir    Directory
	hasher PasswordHasher
	tokens TokenIssuer
	logger logging.Logger

	// decoy is verified against when the username is unknown so both login
	// failure paths pay for one bcrypt comparison.
	decoyOnce sync.Once
	decoy     []byte
}

func NewService(dir Directory, hasher PasswordHasher, tokens TokenIssuer, logger logging.Logger) *Service {
	return &Service{
		dir:    dir,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("module", "users"),
	}
}

func (s *Service) decoyHash() []byte {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("decoy-password")
		if err == nil {
			s.decoy = h
		}
	})
	return s.decoy
}

// Login returns the record for username when password matches.
//
// An unknown username and a wrong password both yield common.ErrLoginFailed.
// Directory connectivity problems yield common.ErrStoreUnavailable, anything
// else common.ErrInternal.
func (s *Service) Login(ctx context.Context, username, password string) (*User, error) {
	// A name that could never have been created cannot match a record.
	if ValidateUsername(username) != nil {
		s.hasher.Verify(password, s.decoyHash())
		s.logger.Debug(ctx, "login failed", "reason", "malformed username")
		return nil, common.ErrLoginFailed
	}

	user, err := s.dir.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Verify(password, s.decoyHash())
			s.logger.Debug(ctx, "login failed", "username", username)
			return nil, common.ErrLoginFailed
		}
		return nil, s.storeError(ctx, "find user", err)
	}

	if !s.hasher.Verify(password, user.HashedPassword) {
		s.logger.Debug(ctx, "login failed", "username", username)
		return nil, common.ErrLoginFailed
	}

	return user, nil
}

// CreateUser hashes the password, inserts the record and returns it as read
// back from the directory.
//
// Errors: common.ErrValidation, common.ErrUsernameTaken,
// common.ErrStoreUnavailable, common.ErrInternal.
func (s *Service) CreateUser(ctx context.Context, n NewUser) (*User, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	_, err := s.dir.FindByUsername(ctx, n.Username)
	switch {
	case err == nil:
		return nil, common.ErrUsernameTaken
	case !errors.Is(err, common.ErrNotFound):
		return nil, s.storeError(ctx, "find user", err)
	}

	hashed, err := s.hasher.Hash(n.Password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		s.logger.Error(ctx, "hash password", "error", err)
		return nil, common.ErrInternal
	}

	// The directory enforces uniqueness too; a concurrent creator that got
	// past the lookup above loses here.
	id, err := s.dir.Insert(ctx, newRecord(n, hashed))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUsernameTaken):
			return nil, common.ErrUsernameTaken
		case errors.Is(err, common.ErrValidation):
			return nil, err
		}
		return nil, s.storeError(ctx, "insert user", err)
	}

	created, err := s.dir.FindByID(ctx, id)
	if err != nil {
		return nil, s.storeError(ctx, "read back user", err)
	}

	s.logger.Info(ctx, "user created", "user_id", created.ID, "username", created.Username, "admin", created.IsAdmin)
	return created, nil
}

// ListUsers returns every record in creation order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	list, err := s.dir.List(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list users", err)
	}
	return list, nil
}

// IssueToken mints a bearer token for user carrying its ID and admin flag.
func (s *Service) IssueToken(ctx context.Context, user *User, now time.Time) (string, error) {
	token, err := s.tokens.Issue(user.ID, user.IsAdmin, now)
	if err != nil {
		s.logger.Error(ctx, "issue token", "user_id", user.ID, "error", err)
		return "", common.ErrInternal
	}
	return token, nil
}

// storeError narrows a directory failure to the closed error set.
func (s *Service) storeError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrStoreUnavailable):
		s.logger.Warn(ctx, op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.logger.Warn(ctx, op, "error", err)
		return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
	default:
		s.logger.Error(ctx, op, "error", err)
		return common.ErrInternal
	}
}
