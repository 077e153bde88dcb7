package authsdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/evoauth/pkg/slogx"
)

const testAPIKey = "test-api-key"

// newTestClient starts an httptest server for handler and returns a client
// pointed at it. opts may tweak the config before the client is built.
func newTestClient(t *testing.T, handler http.Handler, opts ...func(*Config)) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL: srv.URL,
		APIKey:  testAPIKey,
		Logger:  slogx.Discard(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client, err := NewClient(cfg)
	require.NoError(t, err)

	return client, srv
}

// loginAs installs a session directly, bypassing the network.
func loginAs(t *testing.T, c *Client, access, refresh string) {
	t.Helper()

	err := c.sessions.Start(t.Context(), AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &User{ID: "user-1", Email: "jane@example.com"},
	})
	require.NoError(t, err)
}

// writeJSON writes v with the given status.
func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

// writeError writes the identity API error envelope.
func writeError(t *testing.T, w http.ResponseWriter, status int, code, message string) {
	t.Helper()
	writeJSON(t, w, status, map[string]string{"code": code, "message": message})
}

// bearer extracts the bearer token from r, or "".
func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// sessionEnvelope is a typical login/refresh response body.
func sessionEnvelope(access, refresh string) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    900,
		"user": map[string]any{
			"id":    "user-1",
			"email": "jane@example.com",
			"roles": []string{"member"},
		},
	}
}

// memoryPersister is a SessionPersister backed by a plain struct.
type memoryPersister struct {
	session Session
	saves   int
	clears  int
	err     error
}

func (p *memoryPersister) LoadSession(_ context.Context) (Session, error) {
	return p.session, p.err
}

func (p *memoryPersister) SaveSession(_ context.Context, s Session) error {
	if p.err != nil {
		return p.err
	}
	p.saves++
	p.session = s
	return nil
}

func (p *memoryPersister) ClearSession(_ context.Context) error {
	if p.err != nil {
		return p.err
	}
	p.clears++
	p.session = Session{}
	return nil
}
