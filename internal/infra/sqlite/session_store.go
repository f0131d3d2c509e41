// Package sqlite stores profile session keys in a local SQLite file for
// single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"pretest-quiz-service/internal/app"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_kv (
  profile_id TEXT NOT NULL,
  key        TEXT NOT NULL,
  value      BLOB NOT NULL,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY (profile_id, key)
);
`

// SessionStore implements app.ProfileStores on one session_kv table.
type SessionStore struct {
	db      *sql.DB
	timeout time.Duration
}

// Open connects to the SQLite database at dsn and ensures the schema exists.
func Open(dsn string) (*SessionStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SessionStore{db: db, timeout: 2 * time.Second}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// ForProfile implements app.ProfileStores.
func (s *SessionStore) ForProfile(profileID string) app.SessionStore {
	return &profileStore{parent: s, profileID: profileID}
}

type profileStore struct {
	parent    *SessionStore
	profileID string
}

func (p *profileStore) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.parent.timeout)
	defer cancel()
	var value []byte
	err := p.parent.db.QueryRowContext(ctx,
		`SELECT value FROM session_kv WHERE profile_id = ? AND key = ?`,
		p.profileID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (p *profileStore) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.parent.timeout)
	defer cancel()
	_, err := p.parent.db.ExecContext(ctx, `
INSERT INTO session_kv (profile_id, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (profile_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		p.profileID, key, value, time.Now().Unix(),
	)
	return err
}

func (p *profileStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.parent.timeout)
	defer cancel()
	_, err := p.parent.db.ExecContext(ctx,
		`DELETE FROM session_kv WHERE profile_id = ? AND key = ?`,
		p.profileID, key,
	)
	return err
}
