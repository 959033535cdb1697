// Package auth issues and validates bearer tokens and gates requests on them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/userkeeper/internal/common"
)

// Claims is the token payload: the registered claims plus the admin flag
// copied from the user record at issuance time.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Principal is the identity resolved from a valid token.
type Principal struct {
	Subject string
	IsAdmin bool
}

// Issuer signs and validates HMAC tokens. It holds no mutable state and is
// safe for concurrent use.
type Issuer struct {
	method *jwt.SigningMethodHMAC
	secret []byte
	ttl    time.Duration
}

// NewIssuer returns an Issuer for one of the HMAC algorithms (HS256, HS384,
// HS512). Any other algorithm, an empty secret or a non-positive ttl is an error.
func NewIssuer(algorithm string, secret []byte, ttl time.Duration) (*Issuer, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if len(secret) == 0 {
		return nil, errors.New("empty signing secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{method: method, secret: secret, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a token for subject that expires at now+TTL.
func (i *Issuer) Issue(subject string, isAdmin bool, now time.Time) (string, error) {
	token := jwt.NewWithClaims(i.method, Claims{
		Admin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Validate checks the signature, algorithm and expiry of tokenString as of now.
//
// It returns common.ErrTokenExpired only for a correctly signed token whose
// exp is not after now; every other failure is common.ErrInvalidToken.
func (i *Issuer) Validate(tokenString string, now time.Time) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, common.ErrTokenExpired
		}
		return Principal{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return Principal{}, common.ErrInvalidToken
	}

	return Principal{Subject: claims.Subject, IsAdmin: claims.Admin}, nil
}

func (i *Issuer) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return i.secret, nil
}
