package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/evoauth/pkg/authsdk"
	"github.com/aussiebroadwan/evoauth/pkg/cryptox"
)

// ErrMFARejected is returned by mfa-verify when the server refuses the code.
var ErrMFARejected = errors.New("mfa code rejected")

type runFunc func(ctx context.Context, args []string) error

type command struct {
	name    string
	summary string
	setup   func(app *Application, fs *flag.FlagSet) runFunc
}

var commandOrder = []string{
	"login", "signup", "logout", "refresh", "whoami",
	"mfa-enable", "mfa-verify", "social-url", "social-callback",
	"call", "profiles",
}

var commands = map[string]command{
	"login":           {name: "login", summary: "log in with email and password", setup: loginCmd},
	"signup":          {name: "signup", summary: "create an account and log in", setup: signupCmd},
	"logout":          {name: "logout", summary: "end the session", setup: logoutCmd},
	"refresh":         {name: "refresh", summary: "exchange the refresh token for new tokens", setup: refreshCmd},
	"whoami":          {name: "whoami", summary: "show the current session", setup: whoamiCmd},
	"mfa-enable":      {name: "mfa-enable", summary: "start MFA enrollment", setup: mfaEnableCmd},
	"mfa-verify":      {name: "mfa-verify", summary: "verify a one-time code", setup: mfaVerifyCmd},
	"social-url":      {name: "social-url", summary: "print the social login URL for a provider", setup: socialURLCmd},
	"social-callback": {name: "social-callback", summary: "finish social login with the provider code", setup: socialCallbackCmd},
	"call":            {name: "call", summary: "send an authenticated request: call METHOD PATH", setup: callCmd},
	"profiles":        {name: "profiles", summary: "list profiles with a stored session", setup: profilesCmd},
}

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func loginCmd(app *Application, fs *flag.FlagSet) runFunc {
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "account password (default: $EVOAUTH_PASSWORD)")

	return func(ctx context.Context, _ []string) error {
		pw := *password
		if pw == "" {
			pw = os.Getenv("EVOAUTH_PASSWORD")
		}
		if *email == "" || pw == "" {
			return usageErr("--email and --password are required")
		}

		user, err := app.client.Login(ctx, *email, pw)
		if err != nil {
			return err
		}
		return app.printJSON(user)
	}
}

func signupCmd(app *Application, fs *flag.FlagSet) runFunc {
	email := fs.String("email", "", "account email (required)")
	password := fs.String("password", "", "account password (default: $EVOAUTH_PASSWORD)")
	firstName := fs.String("first-name", "", "given name")
	lastName := fs.String("last-name", "", "family name")

	return func(ctx context.Context, _ []string) error {
		pw := *password
		if pw == "" {
			pw = os.Getenv("EVOAUTH_PASSWORD")
		}
		if *email == "" || pw == "" {
			return usageErr("--email and --password are required")
		}

		user, err := app.client.Signup(ctx, *email, pw, *firstName, *lastName)
		if err != nil {
			return err
		}
		return app.printJSON(user)
	}
}

func logoutCmd(app *Application, _ *flag.FlagSet) runFunc {
	return func(ctx context.Context, _ []string) error {
		return app.client.Logout(ctx)
	}
}

func refreshCmd(app *Application, _ *flag.FlagSet) runFunc {
	return func(ctx context.Context, _ []string) error {
		if err := app.client.RefreshSession(ctx); err != nil {
			return err
		}
		return app.printJSON(map[string]string{
			"access_token_fp": cryptox.Fingerprint(app.client.AccessToken()),
		})
	}
}

type whoamiOutput struct {
	Profile       string        `json:"profile"`
	Authenticated bool          `json:"authenticated"`
	User          *authsdk.User `json:"user,omitempty"`
	AccessTokenFP string        `json:"access_token_fp,omitempty"`
	ExpiresIn     string        `json:"expires_in,omitempty"`
	Expired       bool          `json:"expired,omitempty"`
	AMR           []string      `json:"amr,omitempty"`
}

func whoamiCmd(app *Application, _ *flag.FlagSet) runFunc {
	return func(ctx context.Context, _ []string) error {
		s := app.client.Session()
		out := whoamiOutput{
			Profile:       app.cfg.Profile,
			Authenticated: s.Authenticated(),
			User:          s.User,
			AccessTokenFP: cryptox.Fingerprint(s.AccessToken),
		}

		now := time.Now()
		if d, ok := s.ExpiresIn(now); ok {
			out.ExpiresIn = d.Round(time.Second).String()
			out.Expired = d <= 0
		}

		// Opaque tokens are fine; claims are only shown for JWTs and their
		// exp wins over expires_in.
		if claims, err := app.client.AccessTokenClaims(); err == nil {
			if d, ok := claims.ExpiresIn(now); ok {
				out.ExpiresIn = d.Round(time.Second).String()
			}
			out.Expired = claims.ValidateExpiryWithLeeway(now, 0) != nil
			out.AMR = claims.AMR
		}

		return app.printJSON(out)
	}
}

func mfaEnableCmd(app *Application, fs *flag.FlagSet) runFunc {
	showCode := fs.Bool("show-code", false, "also print the current TOTP code for the new secret")

	return func(ctx context.Context, _ []string) error {
		enrollment, err := app.client.EnableMFA(ctx)
		if err != nil {
			return err
		}

		out := map[string]any{
			"secret":       enrollment.Secret,
			"qr_code_url":  enrollment.QRCodeURL,
			"backup_codes": enrollment.BackupCodes,
		}
		if *showCode {
			code, err := enrollment.GenerateCode(time.Now())
			if err != nil {
				return err
			}
			out["current_code"] = code
		}
		return app.printJSON(out)
	}
}

func mfaVerifyCmd(app *Application, fs *flag.FlagSet) runFunc {
	code := fs.String("code", "", "one-time code (required)")

	return func(ctx context.Context, _ []string) error {
		if *code == "" {
			return usageErr("--code is required")
		}

		status, err := app.client.VerifyMFA(ctx, *code)
		if err != nil {
			return err
		}
		if err := app.printJSON(map[string]string{"status": status.String()}); err != nil {
			return err
		}
		if status != authsdk.MFAVerified {
			return ErrMFARejected
		}
		return nil
	}
}

func socialURLCmd(app *Application, fs *flag.FlagSet) runFunc {
	provider := fs.String("provider", string(authsdk.ProviderGoogle), "google, github or microsoft")
	callback := fs.String("callback", "", "where the provider redirects back to (required)")

	return func(ctx context.Context, _ []string) error {
		if *callback == "" {
			return usageErr("--callback is required")
		}
		p, err := parseProvider(*provider)
		if err != nil {
			return err
		}

		state, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return err
		}
		cb, err := withQuery(*callback, "state", state)
		if err != nil {
			return usageErr("invalid --callback: %v", err)
		}

		redirect, err := app.client.SocialLoginURL(ctx, p, cb)
		if err != nil {
			return err
		}
		return app.printJSON(map[string]string{"url": redirect, "state": state})
	}
}

func socialCallbackCmd(app *Application, fs *flag.FlagSet) runFunc {
	code := fs.String("code", "", "authorization code from the provider redirect (required)")

	return func(ctx context.Context, _ []string) error {
		if *code == "" {
			return usageErr("--code is required")
		}

		user, err := app.client.HandleSocialCallback(ctx, *code)
		if err != nil {
			return err
		}
		return app.printJSON(user)
	}
}

func callCmd(app *Application, fs *flag.FlagSet) runFunc {
	data := fs.String("data", "", "JSON request body")

	return func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return usageErr("call needs METHOD and PATH")
		}
		method := strings.ToUpper(args[0])
		path := args[1]
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		var body any
		if *data != "" {
			if !json.Valid([]byte(*data)) {
				return usageErr("--data is not valid JSON")
			}
			body = json.RawMessage(*data)
		}

		var out json.RawMessage
		if err := app.client.Do(ctx, method, path, body, &out); err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		return app.printJSON(out)
	}
}

func profilesCmd(app *Application, _ *flag.FlagSet) runFunc {
	return func(ctx context.Context, _ []string) error {
		profiles, err := app.store.Profiles(ctx)
		if err != nil {
			return err
		}
		return app.printJSON(profiles)
	}
}

func parseProvider(s string) (authsdk.OAuthProvider, error) {
	switch p := authsdk.OAuthProvider(strings.ToLower(s)); p {
	case authsdk.ProviderGoogle, authsdk.ProviderGitHub, authsdk.ProviderMicrosoft:
		return p, nil
	default:
		return "", usageErr("unknown provider %q", s)
	}
}

// withQuery sets key=value on raw's query string.
func withQuery(raw, key, value string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
