package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/evoauth/pkg/authsdk"
)

// Sessions persists the session of one profile. It implements
// authsdk.SessionPersister.
type Sessions struct {
	db      *sql.DB
	profile string
}

var _ authsdk.SessionPersister = (*Sessions)(nil)

// Profile returns the profile name this persister writes to.
func (s *Sessions) Profile() string { return s.profile }

// LoadSession returns the stored session, or an empty Session when the
// profile has none.
func (s *Sessions) LoadSession(ctx context.Context) (authsdk.Session, error) {
	var (
		access  string
		refresh sql.NullString
		user    sql.NullString
		expires sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, user_json, expires_at FROM sessions WHERE profile = ?`,
		s.profile,
	).Scan(&access, &refresh, &user, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return authsdk.Session{}, nil
	}
	if err != nil {
		return authsdk.Session{}, fmt.Errorf("failed to load session %q: %w", s.profile, err)
	}

	session := authsdk.Session{
		AccessToken:  access,
		RefreshToken: mapNullString(refresh),
		ExpiresAt:    mapNullUnix(expires),
	}

	if user.Valid {
		var u authsdk.User
		if err := json.Unmarshal([]byte(user.String), &u); err != nil {
			return authsdk.Session{}, fmt.Errorf("failed to decode stored user for %q: %w", s.profile, err)
		}
		session.User = &u
	}

	return session, nil
}

// SaveSession replaces the stored session. Saving an unauthenticated session
// removes the row.
func (s *Sessions) SaveSession(ctx context.Context, session authsdk.Session) error {
	if !session.Authenticated() {
		return s.ClearSession(ctx)
	}

	var user sql.NullString
	if session.User != nil {
		b, err := json.Marshal(session.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		user = sql.NullString{String: string(b), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (profile, access_token, refresh_token, user_json, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (profile) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			user_json     = excluded.user_json,
			expires_at    = excluded.expires_at,
			updated_at    = excluded.updated_at`,
		s.profile, session.AccessToken, mapStringNull(session.RefreshToken), user, mapUnixNull(session.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save session %q: %w", s.profile, err)
	}
	return nil
}

// ClearSession removes the stored session. A missing row is not an error.
func (s *Sessions) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE profile = ?`, s.profile); err != nil {
		return fmt.Errorf("failed to clear session %q: %w", s.profile, err)
	}
	return nil
}
