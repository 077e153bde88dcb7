// Package sqlite persists SDK sessions in a SQLite database so a session can
// survive process restarts. One database holds any number of named profiles.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultProfile is the profile used when none is named.
const DefaultProfile = "default"

// Store owns the database handle. Sessions are reached per profile through
// Sessions.
type Store struct {
	db *sql.DB
}

// NewStore opens the database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	// One writer per process; pooled connections would contend for the file lock.
	db.SetMaxOpenConns(1)

	return &Store{db: db}, nil
}

// Open is NewStore followed by ApplyMigrations.
func Open(dsn string) (*Store, error) {
	s, err := NewStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Sessions returns the persister for profile. An empty profile selects
// DefaultProfile.
func (s *Store) Sessions(profile string) *Sessions {
	if profile == "" {
		profile = DefaultProfile
	}
	return &Sessions{db: s.db, profile: profile}
}

// Profiles lists the profiles that currently hold a session, most recently
// updated first.
func (s *Store) Profiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT profile FROM sessions ORDER BY updated_at DESC, profile`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// Expiry is stored as unix seconds in UTC; the zero time maps to NULL.
func mapNullUnix(n sql.NullInt64) time.Time {
	if n.Valid {
		return time.Unix(n.Int64, 0).UTC()
	}
	return time.Time{}
}

func mapUnixNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
