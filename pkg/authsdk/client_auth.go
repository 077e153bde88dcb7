package authsdk

import (
	"context"
	"fmt"
	"net/http"
)

// Login authenticates with email and password and starts a new session.
//
// If the new session cannot be persisted, Login ends it and returns the
// persistence error, leaving the client anonymous.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.startSession(ctx, "login", call{
		method: http.MethodPost,
		path:   PathLogin,
		body:   LoginRequest{Email: email, Password: password},
	})
}

// Signup registers a new account and starts a session for it.
func (c *Client) Signup(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	return c.startSession(ctx, "signup", call{
		method: http.MethodPost,
		path:   PathSignup,
		body: SignupRequest{
			Email:     email,
			Password:  password,
			FirstName: firstName,
			LastName:  lastName,
		},
	})
}

// Logout ends the session. The server is told on a best-effort basis: any
// failure of that call, including network errors, is logged and dropped, and
// the local session is cleared regardless. Logout on an anonymous client is a
// no-op. The only error returned is a failure to clear a persisted session.
func (c *Client) Logout(ctx context.Context) error {
	token := c.sessions.AccessToken()
	if token == "" {
		return nil
	}

	_, err := c.req.send(ctx, call{
		method: http.MethodPost,
		path:   PathLogout,
		token:  token,
	})
	if err != nil {
		c.logger.Warn("server logout failed, clearing local session anyway", "err", err)
	}

	return c.sessions.End(context.WithoutCancel(ctx))
}

// startSession posts an unauthenticated call whose reply is a session
// envelope and installs it.
func (c *Client) startSession(ctx context.Context, op string, cl call) (*User, error) {
	res, err := sendJSON[AuthResult](ctx, c.req, cl)
	if err != nil {
		return nil, err
	}
	if res == nil || res.AccessToken == "" {
		return nil, fmt.Errorf("%s failed: %w", op, ErrEmptyResponse)
	}

	if err := c.sessions.Start(ctx, *res); err != nil {
		if endErr := c.sessions.End(context.WithoutCancel(ctx)); endErr != nil {
			c.logger.Warn("failed to roll back unpersisted session", "err", endErr)
		}
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}

	c.logger.Debug("session started", "op", op)
	return res.User, nil
}
