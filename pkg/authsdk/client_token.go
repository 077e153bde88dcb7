package authsdk

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/evoauth/pkg/cryptox"
)

// refreshFlightKey is the single key all refreshes share; a client holds one
// session so there is only ever one refresh worth coalescing.
const refreshFlightKey = "refresh"

// RefreshSession exchanges the refresh token for a new session.
//
// Without a refresh token it fails with ErrNoRefreshToken and makes no call.
// A refresh already in flight, including one started by a retried request, is
// joined rather than duplicated. Cancelling ctx stops the wait but not the
// refresh itself.
//
// A 401 or 403 from the server ends the local session before the error is
// returned, unless the session moved on to a different refresh token while
// the call was out. Every other failure leaves the session untouched.
//
// A response that omits the refresh token or the user keeps the ones already
// held.
func (c *Client) RefreshSession(ctx context.Context) error {
	if c.sessions.RefreshToken() == "" {
		return ErrNoRefreshToken
	}

	_, _, err := c.joinRefresh(ctx, c.refreshLocked)
	return err
}

// refreshAccessToken is the requester's refresh hook.
//
// Concurrent callers share one in-flight refresh. A caller whose stale token
// has already been replaced gets the current token without a network call,
// so a burst of 401s that straddle a finished refresh never starts a second
// one.
func (c *Client) refreshAccessToken(ctx context.Context, stale string) (string, error) {
	if token := c.sessions.AccessToken(); token != "" && token != stale {
		return token, nil
	}

	token, shared, err := c.joinRefresh(ctx, func(ctx context.Context) (string, error) {
		if token := c.sessions.AccessToken(); token != "" && token != stale {
			return token, nil
		}
		return c.refreshLocked(ctx)
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("access token refreshed",
		"shared", shared,
		"stale_fp", cryptox.Fingerprint(stale),
		"token_fp", cryptox.Fingerprint(token),
	)
	return token, nil
}

// joinRefresh runs fn as the client's single refresh flight, or waits on the
// one already running. The flight is detached from ctx so one waiter giving
// up does not fail the others; ctx only bounds how long this caller waits.
func (c *Client) joinRefresh(ctx context.Context, fn func(context.Context) (string, error)) (string, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(refreshFlightKey, func() (any, error) {
		return fn(detached)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Shared, res.Err
		}
		return res.Val.(string), res.Shared, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// refreshLocked performs the refresh call and applies its outcome. It must
// only run inside the refresh flight. It returns the access token held once
// the outcome is applied.
func (c *Client) refreshLocked(ctx context.Context) (string, error) {
	sent := c.sessions.RefreshToken()
	if sent == "" {
		return "", ErrNoRefreshToken
	}

	res, err := sendJSON[AuthResult](ctx, c.req, call{
		method: http.MethodPost,
		path:   PathRefresh,
		body:   RefreshRequest{RefreshToken: sent},
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			ended, endErr := c.sessions.EndIfRefreshToken(ctx, sent)
			if endErr != nil {
				c.logger.Warn("failed to clear rejected session", "err", endErr)
			}
			if !ended {
				c.logger.Debug("refresh rejected for a replaced session, keeping the current one")
			}
		}
		return "", err
	}
	if res == nil || res.AccessToken == "" {
		return "", ErrEmptyResponse
	}

	applied, err := c.sessions.ApplyRefresh(ctx, sent, *res)
	if err != nil {
		return "", err
	}
	if !applied {
		c.logger.Debug("session replaced during refresh, discarding refreshed tokens")
	}
	return c.sessions.AccessToken(), nil
}
