// Package application orchestrates reconciliation runs over a session:
// validation, identity review bookkeeping, the five-step analysis
// pipeline and the derived account summaries.
package application

import (
	"context"
	"errors"
	"log"

	"revstrux/internal/ingest"
	session "revstrux/internal/session/domain"
)

// DefaultSettings seed every new session until the caller changes them.
func DefaultSettings() session.Settings {
	return session.Settings{
		Currency:    "USD",
		PeriodStart: "2024-01",
		PeriodEnd:   "2024-12",
	}
}

// Service wires the session stores into the analysis use cases.
type Service struct {
	sessions session.Repository
	data     session.DataRepository
	logger   *log.Logger
	defaults session.Settings
}

// Option customizes the service.
type Option func(*Service)

// WithDefaultSettings overrides the settings new sessions start with.
func WithDefaultSettings(settings session.Settings) Option {
	return func(s *Service) {
		if settings.Currency != "" {
			s.defaults.Currency = settings.Currency
		}
		if settings.PeriodStart != "" {
			s.defaults.PeriodStart = settings.PeriodStart
		}
		if settings.PeriodEnd != "" {
			s.defaults.PeriodEnd = settings.PeriodEnd
		}
	}
}

// NewService constructs the service.
func NewService(sessions session.Repository, data session.DataRepository, logger *log.Logger, opts ...Option) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("analysis service: nil session repository")
	}
	if data == nil {
		return nil, errors.New("analysis service: nil data repository")
	}
	if logger == nil {
		return nil, errors.New("analysis service: nil logger")
	}
	s := &Service{sessions: sessions, data: data, logger: logger, defaults: DefaultSettings()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateSession opens a new session with default settings.
func (s *Service) CreateSession(ctx context.Context) (*session.Session, error) {
	sess := session.New(session.NewSessionID(), s.defaults)
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Printf("session created: %s", sess.SessionID)
	return sess, nil
}

// Get loads one session.
func (s *Service) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

// UpdateSettings replaces the session settings.
func (s *Service) UpdateSettings(ctx context.Context, sessionID string, settings session.Settings) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Settings = settings
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// StoreUpload persists one uploaded dataset's rows and marks the file
// type as uploaded on the session.
func (s *Service) StoreUpload(ctx context.Context, sessionID, fileType, filename string, rows []ingest.Row) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.data.Set(ctx, sessionID, session.Raw(fileType), rows); err != nil {
		return nil, err
	}
	sess.RecordUpload(fileType, filename, len(rows))
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Decide records one identity verdict.
func (s *Service) Decide(ctx context.Context, sessionID, matchID, decision string) (int, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if err := sess.Decide(matchID, decision); err != nil {
		return 0, err
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return 0, err
	}
	return len(sess.Decisions), nil
}

// Undo removes the most recent identity verdict.
func (s *Service) Undo(ctx context.Context, sessionID string) (session.TimedDecision, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return session.TimedDecision{}, err
	}
	removed, err := sess.Undo()
	if err != nil {
		return session.TimedDecision{}, err
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return session.TimedDecision{}, err
	}
	return removed, nil
}

// ResetDecisions clears all identity verdicts and reports how many were
// dropped.
func (s *Service) ResetDecisions(ctx context.Context, sessionID string) (int, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	cleared := sess.ResetDecisions()
	if err := s.sessions.Update(ctx, sess); err != nil {
		return 0, err
	}
	return cleared, nil
}

// Dataset reads one stored dataset into out.
func (s *Service) Dataset(ctx context.Context, sessionID, name string, out any) error {
	return s.data.Get(ctx, sessionID, name, out)
}

// loadRows reads one stored dataset, treating an absent dataset as empty.
func (s *Service) loadRows(ctx context.Context, sessionID, name string) ([]ingest.Row, error) {
	var rows []ingest.Row
	err := s.data.Get(ctx, sessionID, name, &rows)
	if errors.Is(err, session.ErrDataNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}
