package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

// TokenValidator is the part of Issuer the Guard needs.
type TokenValidator interface {
	Validate(token string, now time.Time) (Principal, error)
}

// Guard authenticates requests from their Authorization header value and
// optionally insists on the admin claim. Each call stands alone.
type Guard struct {
	tokens TokenValidator
	now    func() time.Time
}

// NewGuard returns a Guard using tokens. A nil now means time.Now.
func NewGuard(tokens TokenValidator, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{tokens: tokens, now: now}
}

// Authenticate resolves the principal behind header.
//
// Errors:
//   - common.ErrUnauthorized wrapping common.ErrInvalidToken when the header is
//     missing, is not a bearer credential, or the token does not validate;
//   - common.ErrUnauthorized wrapping common.ErrTokenExpired for expired tokens;
//   - common.ErrForbidden when requireAdmin is set and the token has no admin claim.
func (g *Guard) Authenticate(header string, requireAdmin bool) (Principal, error) {
	raw, ok := BearerToken(header)
	if !ok {
		return Principal{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, common.ErrInvalidToken)
	}

	p, err := g.tokens.Validate(raw, g.now())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}

	if requireAdmin && !p.IsAdmin {
		return Principal{}, common.ErrForbidden
	}
	return p, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// value. The scheme is case-insensitive; the token must be a single
// non-empty word.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
