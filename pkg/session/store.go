// Package session persists per-conversation state: the turn history
// and the single pending action a suspended run leaves behind. Each
// conversation session owns its state; nothing here is shared across
// sessions beyond the database handle.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/harun/temu/pkg/runner"
)

// Turn is a single conversation exchange entry.
type Turn struct {
	Role      string    `json:"role"` // "user" or "agent"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed session store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	key        TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key TEXT NOT NULL REFERENCES sessions(key),
	role        TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS pending_actions (
	session_key TEXT PRIMARY KEY REFERENCES sessions(key),
	action      TEXT NOT NULL,
	subject_id  TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_key);
`

// Open opens (or creates) the session database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate session database: %w", err)
	}

	log.Info().Str("path", path).Msg("Session store opened")
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewKey generates a fresh session key.
func NewKey() (string, error) {
	return gonanoid.New()
}

// validateKey rejects keys that could escape into paths or queries.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("session key cannot be empty")
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, "/\\\x00") {
		return fmt.Errorf("invalid session key %q", key)
	}
	return nil
}

// Ensure creates the session row if it does not exist.
func (s *Store) Ensure(ctx context.Context, key, userID string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (key, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		key, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}
	return nil
}

// AppendTurn records one conversation turn.
func (s *Store) AppendTurn(ctx context.Context, key, role, content string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (session_key, role, content, created_at) VALUES (?, ?, ?, ?)`,
		key, role, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// Turns returns the session's turns in chronological order.
func (s *Store) Turns(ctx context.Context, key string) ([]Turn, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, created_at FROM turns WHERE session_key = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SetPending stores the session's pending action, replacing any
// previous one. A session has at most one.
func (s *Store) SetPending(ctx context.Context, key string, pending runner.PendingAction) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_actions (session_key, action, subject_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_key) DO UPDATE SET
		   action = excluded.action,
		   subject_id = excluded.subject_id,
		   created_at = excluded.created_at`,
		key, pending.Action, pending.SubjectID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set pending action: %w", err)
	}
	return nil
}

// Pending returns the session's pending action, or nil.
func (s *Store) Pending(ctx context.Context, key string) (*runner.PendingAction, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	var p runner.PendingAction
	err := s.db.QueryRowContext(ctx,
		`SELECT action, subject_id FROM pending_actions WHERE session_key = ?`, key).
		Scan(&p.Action, &p.SubjectID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending action: %w", err)
	}
	return &p, nil
}

// ClearPending removes the session's pending action, if any.
func (s *Store) ClearPending(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_actions WHERE session_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to clear pending action: %w", err)
	}
	return nil
}

// SweepStalePending deletes pending actions older than the TTL and
// returns how many were removed. Run on a cron schedule by the daemon.
func (s *Store) SweepStalePending(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_actions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep pending actions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Info().Int64("swept", n).Msg("Stale pending actions removed")
	}
	return int(n), nil
}

// Count returns the number of known sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
