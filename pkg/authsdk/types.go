package authsdk

import (
	"fmt"
	"slices"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// ============================================================================
// Session Types
// ============================================================================

// User is the authenticated user's profile as returned by the identity API.
// A User is never mutated after decoding; each new session replaces it.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// HasRole reports whether the user holds role. A nil user holds no roles.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.Roles, role)
}

// HasAnyRole reports whether the user holds at least one of roles.
func (u *User) HasAnyRole(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if slices.Contains(u.Roles, role) {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the user holds every one of roles.
func (u *User) HasAllRoles(roles ...string) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if !slices.Contains(u.Roles, role) {
			return false
		}
	}
	return true
}

// AuthResult is the session envelope returned by login, signup, refresh and
// the OAuth callback.
type AuthResult struct {
	// AccessToken is the short-lived bearer credential
	AccessToken string `json:"access_token"`

	// RefreshToken is used to mint a new access token
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the access token lifetime in seconds, if the server sent one
	ExpiresIn *int `json:"expires_in,omitempty"`

	User *User `json:"user,omitempty"`
}

// ============================================================================
// Request Types
// ============================================================================

// LoginRequest is posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is posted to the signup endpoint.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RefreshRequest is posted to the refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MFAVerifyRequest carries a one-time code to the MFA verify endpoint.
type MFAVerifyRequest struct {
	Code string `json:"code"` // 6-digit TOTP code
}

// OAuthCallbackRequest exchanges the provider's temporary code for a session.
type OAuthCallbackRequest struct {
	Code string `json:"code"`
}

// ============================================================================
// MFA Types
// ============================================================================

// MFAEnrollment is returned when MFA enrollment starts.
type MFAEnrollment struct {
	Secret      string   `json:"secret"`
	QRCodeURL   string   `json:"qr_code_url"`
	BackupCodes []string `json:"backup_codes"`
}

// Key parses the otpauth:// URL carried in QRCodeURL.
func (m *MFAEnrollment) Key() (*otp.Key, error) {
	key, err := otp.NewKeyFromURL(m.QRCodeURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse otpauth url: %w", err)
	}
	return key, nil
}

// GenerateCode computes the TOTP code for the enrollment secret at t.
// Useful for headless enrollment where the secret is held by the caller.
func (m *MFAEnrollment) GenerateCode(t time.Time) (string, error) {
	code, err := totp.GenerateCode(m.Secret, t)
	if err != nil {
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}

// MFAStatus is the outcome of an MFA verification.
type MFAStatus int

const (
	// MFAFailed means verification could not be attempted or the call failed
	// locally or in transport; the accompanying error says why.
	MFAFailed MFAStatus = iota

	// MFANotVerified means the API rejected the code.
	MFANotVerified

	// MFAVerified means the API accepted the code.
	MFAVerified
)

// String implements fmt.Stringer.
func (s MFAStatus) String() string {
	switch s {
	case MFAVerified:
		return "verified"
	case MFANotVerified:
		return "not_verified"
	default:
		return "failed"
	}
}

// ============================================================================
// OAuth Types
// ============================================================================

// OAuthProvider names a social login provider known to the identity API.
type OAuthProvider string

const (
	ProviderGoogle    OAuthProvider = "google"
	ProviderGitHub    OAuthProvider = "github"
	ProviderMicrosoft OAuthProvider = "microsoft"
)

// socialURLResponse is accepted when the authorize endpoint wraps the URL in an object.
type socialURLResponse struct {
	URL string `json:"url"`
}
