package authsdk

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SessionManager owns the session state. Every read and write goes through
// one RWMutex so a refresh is never observed half-applied.
type SessionManager struct {
	mu        sync.RWMutex
	store     MemoryStore
	persister SessionPersister

	now func() time.Time
}

// NewSessionManager returns an empty manager. persister may be nil.
func NewSessionManager(persister SessionPersister) *SessionManager {
	return &SessionManager{persister: persister, now: time.Now}
}

// Restore replaces the in-memory state with whatever the persister holds.
// It is a no-op without a persister.
func (m *SessionManager) Restore(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}

	s, err := m.persister.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store.save(s)
	return nil
}

// Start replaces access token, refresh token and user from the envelope as
// one unit. Token formats are not validated.
func (m *SessionManager) Start(ctx context.Context, result AuthResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.save(Session{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         result.User,
		ExpiresAt:    expiresAt(result.ExpiresIn, m.now()),
	})
	return m.persistLocked(ctx)
}

// UpdateAccessToken replaces only the access token; the refresh token and
// user carry over unchanged. The expiry is forgotten along with the old token.
func (m *SessionManager) UpdateAccessToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.setAccessToken(token, time.Time{})
	return m.persistLocked(ctx)
}

// ApplyRefresh installs a refresh result, but only while the session still
// holds sent, the refresh token the result was minted from. A refresh token
// or user missing from result carries over. It reports whether the result
// was applied.
func (m *SessionManager) ApplyRefresh(ctx context.Context, sent string, result AuthResult) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.refreshToken != sent {
		return false, nil
	}

	exp := expiresAt(result.ExpiresIn, m.now())
	if result.RefreshToken == "" && result.User == nil {
		m.store.setAccessToken(result.AccessToken, exp)
		return true, m.persistLocked(ctx)
	}

	next := m.store.load()
	next.AccessToken = result.AccessToken
	next.ExpiresAt = exp
	if result.RefreshToken != "" {
		next.RefreshToken = result.RefreshToken
	}
	if result.User != nil {
		next.User = result.User
	}

	m.store.save(next)
	return true, m.persistLocked(ctx)
}

// End clears the session. Calling End on an empty session is fine.
func (m *SessionManager) End(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endLocked(ctx)
}

// EndIfRefreshToken clears the session only while it still holds
// refreshToken. It reports whether the session was cleared.
func (m *SessionManager) EndIfRefreshToken(ctx context.Context, refreshToken string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.refreshToken != refreshToken {
		return false, nil
	}
	return true, m.endLocked(ctx)
}

func (m *SessionManager) endLocked(ctx context.Context) error {
	m.store.clear()
	if m.persister == nil {
		return nil
	}
	if err := m.persister.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether an access token is held. It does not look
// at expiry or signature.
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.accessToken != ""
}

// AccessToken returns the current access token, or "" if none.
func (m *SessionManager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.accessToken
}

// RefreshToken returns the current refresh token, or "" if none.
func (m *SessionManager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.refreshToken
}

// CurrentUser returns the authenticated user, or nil.
func (m *SessionManager) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.user
}

// Snapshot returns a consistent copy of all three fields.
func (m *SessionManager) Snapshot() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.load()
}

// persistLocked writes the current state through to the persister.
// Callers must hold m.mu.
func (m *SessionManager) persistLocked(ctx context.Context) error {
	if m.persister == nil {
		return nil
	}
	if err := m.persister.SaveSession(ctx, m.store.load()); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// expiresAt turns an expires_in lifetime into an absolute time. A missing or
// non-positive lifetime yields the zero time.
func expiresAt(expiresIn *int, now time.Time) time.Time {
	if expiresIn == nil || *expiresIn <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(*expiresIn) * time.Second)
}
