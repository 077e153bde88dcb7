package authsdk

import (
	"context"
	"time"
)

// Session is a point-in-time copy of the session state. An empty string means
// the token is absent.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User

	// ExpiresAt is when the access token lapses, derived from expires_in.
	// Zero when the server did not say.
	ExpiresAt time.Time
}

// Authenticated reports whether the snapshot carries an access token.
func (s Session) Authenticated() bool { return s.AccessToken != "" }

// ExpiresIn returns the access token lifetime left at now. ok is false when
// the expiry is unknown.
func (s Session) ExpiresIn(now time.Time) (d time.Duration, ok bool) {
	if s.ExpiresAt.IsZero() {
		return 0, false
	}
	return s.ExpiresAt.Sub(now), true
}

// MemoryStore is the in-memory session mapping. It does no locking and no
// I/O; SessionManager serializes every access to it.
type MemoryStore struct {
	accessToken  string
	refreshToken string
	user         *User
	expiresAt    time.Time
}

func (m *MemoryStore) save(s Session) {
	m.accessToken = s.AccessToken
	m.refreshToken = s.RefreshToken
	m.user = s.User
	m.expiresAt = s.ExpiresAt
}

func (m *MemoryStore) setAccessToken(token string, expiresAt time.Time) {
	m.accessToken = token
	m.expiresAt = expiresAt
}

func (m *MemoryStore) load() Session {
	return Session{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		User:         m.user,
		ExpiresAt:    m.expiresAt,
	}
}

func (m *MemoryStore) clear() {
	m.accessToken = ""
	m.refreshToken = ""
	m.user = nil
	m.expiresAt = time.Time{}
}

// SessionPersister mirrors session state to durable storage so a session can
// outlive the process. The in-memory state stays authoritative; the persister
// only receives write-through snapshots and is read once by Restore.
type SessionPersister interface {
	// LoadSession returns the stored session, or an empty Session if none exists.
	LoadSession(ctx context.Context) (Session, error)

	// SaveSession replaces the stored session.
	SaveSession(ctx context.Context, s Session) error

	// ClearSession removes the stored session. Clearing an empty store is not an error.
	ClearSession(ctx context.Context) error
}
