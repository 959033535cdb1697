package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

// MaxUsernameLength bounds usernames accepted by the creation path.
const MaxUsernameLength = 128

// User is a directory record. HashedPassword holds bcrypt output only.
type User struct {
	ID             string
	Username       string
	FullName       string
	IsAdmin        bool
	HashedPassword []byte
	CreatedAt      time.Time
}

// NewUser carries the input of the creation path. Password is plaintext and
// is dropped as soon as it has been hashed.
type NewUser struct {
	Username string
	FullName string
	IsAdmin  bool
	Password string
}

// Validate checks the shape of the input before anything touches the directory.
func (n NewUser) Validate() error {
	if err := ValidateUsername(n.Username); err != nil {
		return err
	}
	if !utf8.ValidString(n.FullName) || strings.IndexByte(n.FullName, 0) >= 0 {
		return fmt.Errorf("%w: full name must be valid UTF-8 without NUL bytes", common.ErrValidation)
	}
	if n.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

// ValidateUsername reports whether username could be stored by every
// directory backend: non-empty, bounded, valid UTF-8, no whitespace or
// control characters.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	case len(username) > MaxUsernameLength:
		return fmt.Errorf("%w: username longer than %d bytes", common.ErrValidation, MaxUsernameLength)
	case !utf8.ValidString(username):
		return fmt.Errorf("%w: username must be valid UTF-8", common.ErrValidation)
	case strings.IndexFunc(username, unicode.IsSpace) >= 0:
		return fmt.Errorf("%w: username must not contain whitespace", common.ErrValidation)
	case strings.IndexFunc(username, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: username must not contain control characters", common.ErrValidation)
	}
	return nil
}

// newRecord maps creation input onto a storable record. The plaintext
// password is not carried over; the hash is attached instead.
func newRecord(n NewUser, hashed []byte) *User {
	return &User{
		Username:       n.Username,
		FullName:       n.FullName,
		IsAdmin:        n.IsAdmin,
		HashedPassword: hashed,
	}
}
