/*
Package authsdk provides a session-aware client for the EvoAuth identity API.

# Overview

A Client authenticates an end user, keeps the resulting session (access
token, refresh token and user profile) in memory and attaches the access
token to authenticated calls. When the API rejects a token with 401 or 403,
the Client refreshes the session once and retries the call with the new
token.

	cfg, err := authsdk.NewConfig("https://auth.example.com")
	if err != nil {
		log.Fatal(err)
	}
	cfg.APIKey = "my-api-key"

	client, err := authsdk.NewClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	user, err := client.Login(ctx, "jane@example.com", "password")

# Session Lifecycle

A Client starts anonymous. Login, Signup and HandleSocialCallback start a
session. Logout always returns the Client to anonymous, even when the server
cannot be reached. RefreshSession replaces the tokens; if the server rejects
the refresh token with 401 or 403 the session ends.

	client.IsAuthenticated() // true after Login
	client.CurrentUser()     // *User from the login response
	client.Logout(ctx)       // best effort on the server, always local

# Automatic Token Refresh

Every authenticated call goes through the same executor:

 1. Send the request with the current access token
 2. On 401 or 403, run the refresh hook (the same refresh as RefreshSession)
 3. If the hook produced a token, resend once with it
 4. Otherwise, or if the resend fails again, return the API error

Concurrent calls that hit 401 together share one refresh, and an explicit
RefreshSession joins it too. Calls whose token was already replaced by a
finished refresh reuse the new token without another network round trip. A
refresh outcome only lands while the session still holds the refresh token it
was sent with, so a late rejection never clears a newer session.

Host applications can route their own calls through the same policy:

	var orders []Order
	err := client.Do(ctx, http.MethodGet, "/api/v1/orders", nil, &orders)

# Multi-Factor Authentication

	enrollment, err := client.EnableMFA(ctx)
	key, err := enrollment.Key() // otpauth URL for a QR code

	status, err := client.VerifyMFA(ctx, "123456")
	switch status {
	case authsdk.MFAVerified:
	case authsdk.MFANotVerified: // server said no
	case authsdk.MFAFailed:      // err says why
	}

# Social Login

	redirect, err := client.SocialLoginURL(ctx, authsdk.ProviderGitHub, "https://app.example.com/cb")
	// send the browser to redirect, then on callback:
	user, err := client.HandleSocialCallback(ctx, code)

# Error Handling

Errors are typed and can be matched with errors.As / errors.Is:

  - *ConfigurationError: invalid Config, returned by NewConfig and NewClient
  - *SerializationError: a payload could not be encoded or decoded
  - *TransportError: no response was received; carries the URL
  - *APIError: the server answered non-2xx; carries the status code
  - *SessionError: ErrNotAuthenticated or ErrNoRefreshToken
  - ErrEmptyResponse: a 2xx without the expected envelope

Example:

	_, err := client.Login(ctx, email, password)
	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		fmt.Println("wrong credentials:", apiErr.Message)
	}

# Persistence

By default the session lives only in memory. Set Config.Persister (see
package sessionstore/sqlite) to mirror it to disk and call RestoreSession on
start-up to pick it back up.

# Thread Safety

A Client is safe for concurrent use. All session reads and writes are
serialized by one lock, so a refresh is never seen half-applied.
*/
package authsdk
