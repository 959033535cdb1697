package users

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

// EnsureAdmin creates an admin record for username unless a record with that
// username already exists. created reports whether this call inserted it.
// Losing a creation race to another process counts as success.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (created bool, err error) {
	_, err = s.dir.FindByUsername(ctx, username)
	switch {
	case err == nil:
		s.logger.Debug(ctx, "admin already present", "username", username)
		return false, nil
	case !errors.Is(err, common.ErrNotFound):
		return false, s.storeError(ctx, "find admin", err)
	}

	u, err := s.CreateUser(ctx, NewUser{Username: username, Password: password, IsAdmin: true})
	if err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info(ctx, "admin bootstrapped", "user_id", u.ID, "username", u.Username)
	return true, nil
}
