package sqlite_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/evoauth/pkg/authsdk"
	"github.com/aussiebroadwan/evoauth/pkg/sessionstore/sqlite"
	"github.com/aussiebroadwan/evoauth/pkg/slogx"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sessions.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, path
}

func TestSessions_RoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := openStore(t)
	ctx := t.Context()
	sessions := store.Sessions("")
	require.Equal(t, sqlite.DefaultProfile, sessions.Profile())

	empty, err := sessions.LoadSession(ctx)
	require.NoError(t, err)
	require.False(t, empty.Authenticated())

	want := authsdk.Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User: &authsdk.User{
			ID:    "user-1",
			Email: "jane@example.com",
			Roles: []string{"admin"},
		},
		ExpiresAt: time.Unix(1767225600, 0).UTC(),
	}
	require.NoError(t, sessions.SaveSession(ctx, want))

	got, err := sessions.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Overwrite keeps one row per profile.
	want.AccessToken = "access-2"
	want.RefreshToken = ""
	want.User = nil
	want.ExpiresAt = time.Time{}
	require.NoError(t, sessions.SaveSession(ctx, want))

	got, err = sessions.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	profiles, err := store.Profiles(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{sqlite.DefaultProfile}, profiles)

	require.NoError(t, sessions.ClearSession(ctx))
	require.NoError(t, sessions.ClearSession(ctx), "clearing twice is fine")

	got, err = sessions.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, authsdk.Session{}, got)
}

func TestSessions_ProfilesAreIsolated(t *testing.T) {
	t.Parallel()

	store, _ := openStore(t)
	ctx := t.Context()

	work := store.Sessions("work")
	home := store.Sessions("home")

	require.NoError(t, work.SaveSession(ctx, authsdk.Session{AccessToken: "work-token"}))
	require.NoError(t, home.SaveSession(ctx, authsdk.Session{AccessToken: "home-token"}))

	got, err := work.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "work-token", got.AccessToken)

	require.NoError(t, home.SaveSession(ctx, authsdk.Session{}), "saving an empty session clears it")

	got, err = home.LoadSession(ctx)
	require.NoError(t, err)
	require.False(t, got.Authenticated())

	profiles, err := store.Profiles(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"work"}, profiles)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	t.Parallel()

	store, path := openStore(t)
	require.NoError(t, store.ApplyMigrations())
	require.NoError(t, store.Ping(t.Context()))

	again, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestSessions_RestoreIntoNewClient(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+authsdk.PathLogin, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"user":          map[string]any{"id": "user-1", "email": "jane@example.com"},
		})
	})
	mux.HandleFunc("POST "+authsdk.PathLogout, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store, _ := openStore(t)
	ctx := t.Context()

	newClient := func() *authsdk.Client {
		c, err := authsdk.NewClient(authsdk.Config{
			BaseURL:   srv.URL,
			Logger:    slogx.Discard(),
			Persister: store.Sessions("cli"),
		})
		require.NoError(t, err)
		return c
	}

	first := newClient()
	_, err := first.Login(ctx, "jane@example.com", "hunter2")
	require.NoError(t, err)

	second := newClient()
	require.False(t, second.IsAuthenticated())
	require.NoError(t, second.RestoreSession(ctx))
	require.True(t, second.IsAuthenticated())
	require.Equal(t, "access-1", second.AccessToken())
	require.Equal(t, "jane@example.com", second.CurrentUser().Email)

	// Logout on one client clears the stored copy.
	require.NoError(t, second.Logout(ctx))

	third := newClient()
	require.NoError(t, third.RestoreSession(ctx))
	require.False(t, third.IsAuthenticated())
}
