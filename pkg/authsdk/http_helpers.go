package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/evoauth/pkg/cryptox"
	"github.com/aussiebroadwan/evoauth/pkg/httpx"
	"github.com/aussiebroadwan/evoauth/pkg/idx"
	"github.com/aussiebroadwan/evoauth/pkg/slogx"
)

// maxAttempts bounds one logical request chain: the original send plus at
// most one resend after a token refresh.
const maxAttempts = 2

// RefreshFunc is invoked when a request that carried staleToken was answered
// with 401 or 403. It returns the token to retry with; an error or an empty
// token means the original failure is surfaced instead.
type RefreshFunc func(ctx context.Context, staleToken string) (string, error)

// call describes one logical request.
type call struct {
	method string
	path   string // relative to the base URL, may carry a query string
	body   any    // nil sends no body
	token  string // "" sends no Authorization header
}

// requester sends calls to the identity API and applies the
// refresh-and-retry policy.
type requester struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	refresh RefreshFunc
}

func newRequester(cfg Config) *requester {
	base := cfg.Transport
	if base == nil {
		base = defaultTransport(cfg.ConnectionTimeout)
	}

	rt := httpx.RateLimitTransport(httpx.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
	}, base)
	rt = slogx.Transport(cfg.Logger, rt)

	return &requester{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			// connect and read each get the timeout; this caps the pair
			Timeout:   2 * cfg.ConnectionTimeout,
			Transport: rt,
		},
		logger: cfg.Logger,
	}
}

// defaultTransport applies timeout to dialing, the TLS handshake and waiting
// for response headers.
func defaultTransport(timeout time.Duration) http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return t
}

// setRefreshHook registers fn as the refresh hook. A nil fn disables refresh.
func (r *requester) setRefreshHook(fn RefreshFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh = fn
}

func (r *requester) refreshHook() RefreshFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refresh
}

// url builds a complete URL by appending the path to the base URL.
func (r *requester) url(path string) string {
	return r.baseURL + path
}

// send performs c and returns the raw 2xx body.
//
// A 401/403 on a bearer request asks the refresh hook for a new token and
// resends once. The attempt counter lives on this stack frame, so concurrent
// chains never share a retry budget.
func (r *requester) send(ctx context.Context, c call) ([]byte, error) {
	var payload []byte
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			return nil, &SerializationError{Op: "encode", Err: err}
		}
		payload = b
	}

	// One ID for the whole chain so a retry can be matched to its original.
	reqID := idx.New().String()
	log := slogx.FromContext(ctx, r.logger).With("req_id", reqID)

	token := c.token
	for attempt := 1; ; attempt++ {
		status, body, err := r.roundTrip(ctx, c.method, c.path, payload, token, reqID)
		if err != nil {
			return nil, err
		}

		if status >= 200 && status < 300 {
			return body, nil
		}

		apiErr := parseErrorResponse(status, body)
		if !isAuthFailure(status) || token == "" || attempt >= maxAttempts {
			return nil, apiErr
		}

		newToken, ok := r.renewToken(ctx, log, token)
		if !ok {
			return nil, apiErr
		}

		log.Debug("retrying request with refreshed token",
			"path", c.path,
			"status", status,
			"token_fp", cryptox.Fingerprint(newToken),
		)
		token = newToken
	}
}

// renewToken runs the refresh hook. Hook failures are swallowed so the
// caller sees the original response rather than a secondary error.
func (r *requester) renewToken(ctx context.Context, log *slog.Logger, stale string) (string, bool) {
	hook := r.refreshHook()
	if hook == nil {
		return "", false
	}

	token, err := hook(ctx, stale)
	if err != nil {
		log.Debug("token refresh failed", "err", err)
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}

// roundTrip sends a single HTTP request and reads the whole response body.
func (r *requester) roundTrip(
	ctx context.Context,
	method, path string,
	payload []byte,
	token, reqID string,
) (int, []byte, error) {
	target := r.url(path)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set(httpx.HeaderAccept, httpx.ContentTypeJSON)
	req.Header.Set(httpx.HeaderRequestID, reqID)
	if payload != nil {
		req.Header.Set(httpx.HeaderContentType, httpx.ContentTypeJSON)
	}
	if r.apiKey != "" {
		req.Header.Set(httpx.HeaderAPIKey, r.apiKey)
	}
	if token != "" {
		req.Header.Set(httpx.HeaderAuthorization, httpx.Bearer(token))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Method: method, URL: target, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return resp.StatusCode, bodyBytes, nil
}

// sendJSON performs c and decodes a 2xx body into T. A missing body yields
// (nil, nil); callers decide whether that is acceptable.
func sendJSON[T any](ctx context.Context, r *requester, c call) (*T, error) {
	body, err := r.send(ctx, c)
	if err != nil {
		return nil, err
	}

	if isEmptyBody(body) {
		return nil, nil
	}

	var out T
	if err := decodeBody(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeBody decodes a JSON body into target. Unknown fields are ignored.
func decodeBody(body []byte, target any) error {
	if err := json.Unmarshal(body, target); err != nil {
		return &SerializationError{Op: "decode", Err: err}
	}
	return nil
}

// isEmptyBody treats whitespace and a JSON null as "no value".
func isEmptyBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
