// Package postgres persists sessions and their datasets. The aggregate
// is stored as a JSONB document beside a status column so the open
// session gauge can count without decoding documents; datasets live in a
// separate table keyed by session and dataset name.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	session "revstrux/internal/session/domain"
)

const (
	sessionsTable    = "revstrux_sessions"
	sessionDataTable = "revstrux_session_data"
)

// SessionRepository persists session aggregates.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository constructs a repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	if r == nil || r.db == nil {
		return errors.New("session repo: nil db")
	}
	if s == nil {
		return session.ErrNilSession
	}
	document, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session repo: encode %s: %w", s.SessionID, err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO `+sessionsTable+` (session_id, status, document, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)`,
		s.SessionID, s.Status, document, s.CreatedAt, time.Now().UTC())
	return err
}

// Get loads a session by id.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("session repo: nil db")
	}
	if id == "" {
		return nil, session.ErrEmptyID
	}
	var document []byte
	err := r.db.QueryRowContext(ctx, `
SELECT document FROM `+sessionsTable+` WHERE session_id = $1 LIMIT 1`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s session.Session
	if err := json.Unmarshal(document, &s); err != nil {
		return nil, fmt.Errorf("session repo: decode %s: %w", id, err)
	}
	return &s, nil
}

// Update replaces the stored document and status.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	if r == nil || r.db == nil {
		return errors.New("session repo: nil db")
	}
	if s == nil {
		return session.ErrNilSession
	}
	document, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session repo: encode %s: %w", s.SessionID, err)
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE `+sessionsTable+` SET status = $2, document = $3, updated_at = $4
WHERE session_id = $1`,
		s.SessionID, s.Status, document, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return session.ErrNotFound
	}
	return nil
}

// CountByStatus counts sessions in the given status.
func (r *SessionRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("session repo: nil db")
	}
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM `+sessionsTable+` WHERE status = $1`, status).Scan(&count)
	return count, err
}

// DataRepository persists session datasets.
type DataRepository struct {
	db *sql.DB
}

// NewDataRepository constructs a dataset repository.
func NewDataRepository(db *sql.DB) *DataRepository {
	return &DataRepository{db: db}
}

// Set upserts one dataset blob.
func (r *DataRepository) Set(ctx context.Context, sessionID, name string, v any) error {
	if r == nil || r.db == nil {
		return errors.New("session data repo: nil db")
	}
	if sessionID == "" {
		return session.ErrEmptyID
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session data repo: encode %s/%s: %w", sessionID, name, err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO `+sessionDataTable+` (session_id, name, data, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id, name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		sessionID, name, data, time.Now().UTC())
	return err
}

// Get loads one dataset blob into out.
func (r *DataRepository) Get(ctx context.Context, sessionID, name string, out any) error {
	if r == nil || r.db == nil {
		return errors.New("session data repo: nil db")
	}
	if sessionID == "" {
		return session.ErrEmptyID
	}
	var data []byte
	err := r.db.QueryRowContext(ctx, `
SELECT data FROM `+sessionDataTable+` WHERE session_id = $1 AND name = $2 LIMIT 1`,
		sessionID, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return session.ErrDataNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("session data repo: decode %s/%s: %w", sessionID, name, err)
	}
	return nil
}

// Schema returns the DDL for the session tables. Applied at startup when
// migrations are enabled.
func Schema() string {
	return `
CREATE TABLE IF NOT EXISTS ` + sessionsTable + ` (
	session_id TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS ` + sessionDataTable + ` (
	session_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (session_id, name)
);
CREATE INDEX IF NOT EXISTS idx_` + sessionsTable + `_status ON ` + sessionsTable + ` (status);`
}
