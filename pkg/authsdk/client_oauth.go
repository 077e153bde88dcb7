package authsdk

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SocialLoginURL asks the identity API where to send the user's browser to
// sign in with provider. callbackURL is where the provider redirects back.
//
// The endpoint may answer with a JSON string, a {"url": ...} object or plain
// text; all three are accepted.
func (c *Client) SocialLoginURL(ctx context.Context, provider OAuthProvider, callbackURL string) (string, error) {
	params := url.Values{}
	params.Set("provider", string(provider))
	params.Set("redirect_uri", callbackURL)

	body, err := c.req.send(ctx, call{
		method: http.MethodGet,
		path:   PathOAuthURL + "?" + params.Encode(),
	})
	if err != nil {
		return "", err
	}

	return parseSocialURL(body)
}

// HandleSocialCallback exchanges the code the provider handed back for a
// session, exactly like Login.
func (c *Client) HandleSocialCallback(ctx context.Context, code string) (*User, error) {
	return c.startSession(ctx, "oauth callback", call{
		method: http.MethodPost,
		path:   PathOAuthCallback,
		body:   OAuthCallbackRequest{Code: code},
	})
}

func parseSocialURL(body []byte) (string, error) {
	if isEmptyBody(body) {
		return "", ErrEmptyResponse
	}

	trimmed := bytes.TrimSpace(body)
	switch trimmed[0] {
	case '"':
		var s string
		if err := decodeBody(trimmed, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", ErrEmptyResponse
		}
		return s, nil

	case '{':
		var wrapped socialURLResponse
		if err := decodeBody(trimmed, &wrapped); err != nil {
			return "", err
		}
		if wrapped.URL == "" {
			return "", ErrEmptyResponse
		}
		return wrapped.URL, nil

	default:
		return strings.TrimSpace(string(trimmed)), nil
	}
}
