package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// TokenSize128 provides 128 bits of entropy (22 chars base64url).
const TokenSize128 = 16

// fingerprintLen is how many base64url characters Fingerprint keeps.
const fingerprintLen = 12

// GenerateToken returns size random bytes, base64url-encoded without padding.
// Used for OAuth state values that must not be guessable.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded (43 chars). Two fingerprints are equal iff the tokens are.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Fingerprint returns a short, log-safe identifier for a bearer token.
// The empty token maps to the empty string so absent tokens stay visible.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return FingerprintToken(token)[:fingerprintLen]
}
