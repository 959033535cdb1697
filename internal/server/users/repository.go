package users

import "context"

// Directory is the record store consulted by Service.
//
// Implementations return common.ErrNotFound for absent records,
// common.ErrUsernameTaken when an insert collides on username, and wrap
// connectivity failures with common.ErrStoreUnavailable. Username uniqueness
// must be enforced by the store itself.
type Directory interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// Insert stores u and returns the generated ID. u.ID and u.CreatedAt are ignored.
	Insert(ctx context.Context, u *User) (string, error)
	// List returns every record ordered by creation time.
	List(ctx context.Context) ([]User, error)
	Ping(ctx context.Context) error
	Close() error
}
