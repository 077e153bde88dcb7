package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Claims are the access-token claims the SDK knows how to read. Unknown claims
// are ignored so servers can add fields freely.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID
	SID string `json:"sid,omitempty"`

	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`

	// Authentication Methods Reference ["pwd","mfa"]
	AMR []string `json:"amr,omitempty"`
}

// ParseUnverified decodes a JWT without checking its signature.
//
// The SDK is a bearer of the token, not its audience: it has no key to verify
// with and only reads claims to make local decisions (display, expiry hints).
// Never use the result for authorization.
func ParseUnverified(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return claims, nil
}

// ExpiresIn returns the time left until exp relative to now. ok is false when
// the token carries no exp claim.
func (c *Claims) ExpiresIn(now time.Time) (d time.Duration, ok bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Sub(now), true
}

// ValidateExpiryWithLeeway checks exp and nbf against now with a grace period
// for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
