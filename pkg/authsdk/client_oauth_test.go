package authsdk

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialLoginURL(t *testing.T) {
	t.Parallel()

	const redirect = "https://github.com/login/oauth/authorize?client_id=abc"

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{name: "json string", body: `"` + redirect + `"`, want: redirect},
		{name: "json object", body: `{"url":"` + redirect + `","state":"xyz"}`, want: redirect},
		{name: "plain text", body: redirect + "\n", want: redirect},
		{name: "empty body", body: "", wantErr: ErrEmptyResponse},
		{name: "empty object", body: `{}`, wantErr: ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mux := http.NewServeMux()
			mux.HandleFunc("GET "+PathOAuthURL, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "github", r.URL.Query().Get("provider"))
				assert.Equal(t, "https://app.example.com/cb?x=1", r.URL.Query().Get("redirect_uri"))
				assert.Empty(t, r.Header.Get("Authorization"))
				_, _ = w.Write([]byte(tt.body))
			})

			client, _ := newTestClient(t, mux)

			got, err := client.SocialLoginURL(t.Context(), ProviderGitHub, "https://app.example.com/cb?x=1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestHandleSocialCallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathOAuthCallback, func(w http.ResponseWriter, r *http.Request) {
		var req OAuthCallbackRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "provider-code", req.Code)

		writeJSON(t, w, http.StatusOK, sessionEnvelope("access-1", "refresh-1"))
	})

	client, _ := newTestClient(t, mux)

	user, err := client.HandleSocialCallback(t.Context(), "provider-code")
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)
	require.Equal(t, "access-1", client.AccessToken())
}
