package authsdk

import (
	"context"
	"errors"
	"net/http"
)

// EnableMFA starts MFA enrollment for the authenticated user and returns the
// TOTP secret, its otpauth URL and a set of backup codes.
func (c *Client) EnableMFA(ctx context.Context) (*MFAEnrollment, error) {
	token := c.sessions.AccessToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	enrollment, err := sendJSON[MFAEnrollment](ctx, c.req, call{
		method: http.MethodPost,
		path:   PathMFAEnable,
		token:  token,
	})
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, ErrEmptyResponse
	}

	return enrollment, nil
}

// VerifyMFA submits a one-time code.
//
// Any 2xx is MFAVerified. Any API rejection is MFANotVerified with a nil
// error. Everything else (not logged in, encode failure, network failure) is
// MFAFailed with the error.
func (c *Client) VerifyMFA(ctx context.Context, code string) (MFAStatus, error) {
	token := c.sessions.AccessToken()
	if token == "" {
		return MFAFailed, ErrNotAuthenticated
	}

	_, err := c.req.send(ctx, call{
		method: http.MethodPost,
		path:   PathMFAVerify,
		body:   MFAVerifyRequest{Code: code},
		token:  token,
	})
	if err == nil {
		return MFAVerified, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.logger.Debug("mfa code rejected", "status", apiErr.StatusCode)
		return MFANotVerified, nil
	}

	return MFAFailed, err
}
