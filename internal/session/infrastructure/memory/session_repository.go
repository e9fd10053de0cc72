// Package memory provides in-memory session storage for tests and for
// running without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	session "revstrux/internal/session/domain"
)

// SessionRepository is an in-memory session store. Sessions are stored
// as JSON snapshots so callers cannot mutate stored state through
// retained pointers.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	status   map[string]string
}

// NewSessionRepository constructs a repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string][]byte),
		status:   make(map[string]string),
	}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	_ = ctx
	if s == nil {
		return session.ErrNilSession
	}
	return r.put(s)
}

// Get loads a session by id.
func (r *SessionRepository) Get(ctx context.Context, id string) (*session.Session, error) {
	_ = ctx
	if id == "" {
		return nil, session.ErrEmptyID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	var s session.Session
	if err := json.Unmarshal(snapshot, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Update replaces a stored session.
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	_ = ctx
	if s == nil {
		return session.ErrNilSession
	}
	r.mu.RLock()
	_, ok := r.sessions[s.SessionID]
	r.mu.RUnlock()
	if !ok {
		return session.ErrNotFound
	}
	return r.put(s)
}

// CountByStatus counts sessions in the given status.
func (r *SessionRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, st := range r.status {
		if st == status {
			count++
		}
	}
	return count, nil
}

func (r *SessionRepository) put(s *session.Session) error {
	snapshot, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = snapshot
	r.status[s.SessionID] = s.Status
	return nil
}

// DataRepository is an in-memory dataset store keyed by session and
// dataset name.
type DataRepository struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewDataRepository constructs a dataset store.
func NewDataRepository() *DataRepository {
	return &DataRepository{data: make(map[string][]byte)}
}

// Set marshals and stores one dataset blob.
func (r *DataRepository) Set(ctx context.Context, sessionID, name string, v any) error {
	_ = ctx
	if sessionID == "" {
		return session.ErrEmptyID
	}
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[dataKey(sessionID, name)] = blob
	return nil
}

// Get unmarshals one stored dataset blob into out.
func (r *DataRepository) Get(ctx context.Context, sessionID, name string, out any) error {
	_ = ctx
	if sessionID == "" {
		return session.ErrEmptyID
	}
	r.mu.RLock()
	blob, ok := r.data[dataKey(sessionID, name)]
	r.mu.RUnlock()
	if !ok {
		return session.ErrDataNotFound
	}
	return json.Unmarshal(blob, out)
}

func dataKey(sessionID, name string) string {
	return fmt.Sprintf("%s/%s", sessionID, name)
}
