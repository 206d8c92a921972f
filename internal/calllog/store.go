// Package calllog keeps an optional sqlite audit trail of calls and turns.
// It is off by default; when disabled every write is a no-op.
package calllog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/frontdesk-labs/frontdesk-core/internal/config"
)

// TurnRecord is one logged line of conversation.
type TurnRecord struct {
	ID        int64
	SessionID string
	Role      string
	Text      string
	CreatedAt time.Time
}

// Store wraps the sqlite call log.
type Store struct {
	db    *sql.DB
	cfg   config.CallLogConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the call log. A disabled config yields a store whose
// writes do nothing.
func Open(ctx context.Context, cfg config.CallLogConfig, log *slog.Logger) (*Store, error) {
	if !cfg.Enabled {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log.With(slog.String("component", "calllog")), clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Prune(ctx); err != nil {
		s.log.Warn("call log prune on start failed", slog.String("error", err.Error()))
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS calls (
    session_id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    role TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(session_id) REFERENCES calls(session_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_turns_session_created ON turns(session_id, created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordTurn logs one line of conversation, creating the call row on first
// use. Errors are swallowed after logging so the turn path never stalls.
func (s *Store) RecordTurn(sessionID, role, text string) {
	if s.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	now := s.clock().UTC()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO calls(session_id, created_at) VALUES(?, ?)
		 ON CONFLICT(session_id) DO NOTHING`, sessionID, now); err != nil {
		s.log.Warn("call row insert failed", slog.String("error", err.Error()))
		return
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO turns(session_id, role, text, created_at) VALUES(?, ?, ?, ?)`,
		sessionID, role, text, now); err != nil {
		s.log.Warn("turn insert failed", slog.String("error", err.Error()))
	}
}

// ListTurns returns up to limit turns for a call, oldest first.
func (s *Store) ListTurns(ctx context.Context, sessionID string, limit int) ([]TurnRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, text, created_at
		 FROM turns WHERE session_id = ? ORDER BY id ASC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []TurnRecord
	for rows.Next() {
		var t TurnRecord
		var created string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Role, &t.Text, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			t.CreatedAt = ts
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Prune applies the configured retention.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour).UTC()
		if _, err = tx.ExecContext(ctx, `DELETE FROM turns WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM calls WHERE created_at < ?`, cutoff); err != nil {
			return err
		}
	}
	if s.cfg.MaxCalls > 0 {
		if _, err = tx.ExecContext(ctx, `DELETE FROM calls WHERE session_id IN (
			SELECT session_id FROM calls ORDER BY created_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxCalls); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}
