package authsdk

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/evoauth/pkg/jwtx"
)

// Client is a session-aware client for the identity API.
//
// It holds one logical session. Authenticated calls attach the current access
// token and, when the API answers 401 or 403, refresh the session once and
// retry. A Client is safe for concurrent use.
type Client struct {
	req      *requester
	sessions *SessionManager
	logger   *slog.Logger

	// refreshGroup coalesces concurrent refreshes into one network call
	refreshGroup singleflight.Group
}

// NewClient validates cfg and returns an anonymous Client. If cfg carries a
// Persister, call RestoreSession to pick up a previously stored session.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	c := &Client{
		req:      newRequester(cfg),
		sessions: NewSessionManager(cfg.Persister),
		logger:   cfg.Logger,
	}
	c.req.setRefreshHook(c.refreshAccessToken)

	return c, nil
}

// RestoreSession loads the persisted session, if any, into memory.
func (c *Client) RestoreSession(ctx context.Context) error {
	return c.sessions.Restore(ctx)
}

// IsAuthenticated reports whether the client holds an access token.
func (c *Client) IsAuthenticated() bool {
	return c.sessions.IsAuthenticated()
}

// CurrentUser returns the authenticated user, or nil when anonymous.
func (c *Client) CurrentUser() *User {
	return c.sessions.CurrentUser()
}

// AccessToken returns the current access token, or "" when anonymous.
func (c *Client) AccessToken() string {
	return c.sessions.AccessToken()
}

// Session returns a consistent copy of the current session.
func (c *Client) Session() Session {
	return c.sessions.Snapshot()
}

// AccessTokenClaims decodes the current access token without verifying it.
func (c *Client) AccessTokenClaims() (*jwtx.Claims, error) {
	token := c.sessions.AccessToken()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	return jwtx.ParseUnverified(token)
}

// Do sends an authenticated request to path on the identity API host and
// decodes a 2xx JSON body into out (when out is non-nil and a body is
// present). It follows the same refresh-and-retry policy as every other
// authenticated operation.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token := c.sessions.AccessToken()
	if token == "" {
		return ErrNotAuthenticated
	}

	raw, err := c.req.send(ctx, call{method: method, path: path, body: body, token: token})
	if err != nil {
		return err
	}

	if out == nil || isEmptyBody(raw) {
		return nil
	}
	return decodeBody(raw, out)
}
