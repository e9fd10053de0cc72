// Package session holds the analysis session aggregate: uploaded dataset
// state, validation outcome, the identity review with its decision
// history, and the processing step log. Datasets themselves are stored
// separately as typed JSON blobs keyed by session and dataset name.
package session

import (
	"time"

	"github.com/google/uuid"

	identity "revstrux/internal/identity/domain"
	"revstrux/internal/ingest"
)

// Session statuses.
const (
	StatusCreated        = "created"
	StatusValidated      = "validated"
	StatusIdentityReview = "identity_review"
	StatusProcessing     = "processing"
	StatusCompleted      = "completed"
	StatusError          = "error"
)

// Processing step states.
const (
	StepRunning  = "running"
	StepComplete = "complete"
	StepFailed   = "failed"
)

// Settings are the per-session analysis parameters.
type Settings struct {
	Currency    string `json:"currency"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// UploadStatus tracks one dataset's upload state.
type UploadStatus struct {
	Uploaded bool   `json:"uploaded"`
	Rows     int    `json:"rows"`
	Filename string `json:"filename"`
}

// TimedDecision is one identity verdict with its timestamp.
type TimedDecision struct {
	MatchID   string    `json:"match_id"`
	Decision  string    `json:"decision"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry records one identity-review action for auditability.
type HistoryEntry struct {
	Action    string    `json:"action"`
	MatchID   string    `json:"match_id,omitempty"`
	Decision  string    `json:"decision,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StepStatus is the state of one processing step.
type StepStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// LogEntry is one processing log line.
type LogEntry struct {
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProcessingStatus tracks the analysis run.
type ProcessingStatus struct {
	CurrentStep string                `json:"current_step,omitempty"`
	Steps       map[string]StepStatus `json:"steps"`
	Log         []LogEntry            `json:"log"`
	Error       string                `json:"error,omitempty"`
}

// Session is the aggregate root of one analysis workflow.
type Session struct {
	SessionID        string                  `json:"session_id"`
	Status           string                  `json:"status"`
	Settings         Settings                `json:"settings"`
	UploadStatus     map[string]UploadStatus `json:"upload_status"`
	ValidationResult *ingest.Report          `json:"validation_result"`
	IdentityResult   *identity.ResolveResult `json:"identity_result"`
	Decisions        []TimedDecision         `json:"identity_decisions"`
	DecisionHistory  []HistoryEntry          `json:"decision_history"`
	Processing       ProcessingStatus        `json:"processing_status"`
	CreatedAt        time.Time               `json:"created_at"`
	CompletedAt      *time.Time              `json:"completed_at"`
}

// NewSessionID produces a short random session identifier.
func NewSessionID() string {
	return uuid.New().String()[:12]
}

// New creates a session in the created state with default settings.
func New(id string, defaults Settings) *Session {
	uploads := make(map[string]UploadStatus, len(ingest.FileTypes))
	for _, ft := range ingest.FileTypes {
		uploads[ft] = UploadStatus{}
	}
	return &Session{
		SessionID:    id,
		Status:       StatusCreated,
		Settings:     defaults,
		UploadStatus: uploads,
		Processing:   ProcessingStatus{Steps: map[string]StepStatus{}},
		CreatedAt:    time.Now().UTC(),
	}
}

// RecordUpload marks one dataset as uploaded.
func (s *Session) RecordUpload(fileType, filename string, rows int) {
	if s.UploadStatus == nil {
		s.UploadStatus = map[string]UploadStatus{}
	}
	s.UploadStatus[fileType] = UploadStatus{Uploaded: true, Rows: rows, Filename: filename}
}

// Decide records one identity verdict, replacing any earlier verdict for
// the same match. Every call is appended to the history.
func (s *Session) Decide(matchID, decision string) error {
	if matchID == "" || (decision != "confirmed" && decision != "rejected") {
		return ErrInvalidDecision
	}
	kept := s.Decisions[:0]
	for _, d := range s.Decisions {
		if d.MatchID != matchID {
			kept = append(kept, d)
		}
	}
	now := time.Now().UTC()
	s.Decisions = append(kept, TimedDecision{MatchID: matchID, Decision: decision, Timestamp: now})
	s.DecisionHistory = append(s.DecisionHistory, HistoryEntry{
		Action: "decide", MatchID: matchID, Decision: decision, Timestamp: now,
	})
	return nil
}

// Undo removes and returns the most recent decision.
func (s *Session) Undo() (TimedDecision, error) {
	if len(s.Decisions) == 0 {
		return TimedDecision{}, ErrNoDecisions
	}
	removed := s.Decisions[len(s.Decisions)-1]
	s.Decisions = s.Decisions[:len(s.Decisions)-1]
	s.DecisionHistory = append(s.DecisionHistory, HistoryEntry{
		Action: "undo", MatchID: removed.MatchID, Timestamp: time.Now().UTC(),
	})
	return removed, nil
}

// ResetDecisions clears every decision and returns how many were cleared.
func (s *Session) ResetDecisions() int {
	count := len(s.Decisions)
	s.Decisions = nil
	s.DecisionHistory = append(s.DecisionHistory, HistoryEntry{
		Action: "reset", Count: count, Timestamp: time.Now().UTC(),
	})
	return count
}

// PendingReview lists the review matches without a decision yet.
func (s *Session) PendingReview() []string {
	if s.IdentityResult == nil {
		return nil
	}
	decided := make(map[string]bool, len(s.Decisions))
	for _, d := range s.Decisions {
		decided[d.MatchID] = true
	}
	var pending []string
	for _, m := range s.IdentityResult.NeedsReview {
		if !decided[m.MatchID] {
			pending = append(pending, m.MatchID)
		}
	}
	return pending
}

// BeginProcessing switches the session into the processing state and
// clears any earlier step log.
func (s *Session) BeginProcessing(firstStep string) {
	s.Status = StatusProcessing
	s.Processing = ProcessingStatus{CurrentStep: firstStep, Steps: map[string]StepStatus{}}
}

// LogStep records a step transition, appending a log line when a message
// is given.
func (s *Session) LogStep(step, status, message string) {
	now := time.Now().UTC()
	if s.Processing.Steps == nil {
		s.Processing.Steps = map[string]StepStatus{}
	}
	s.Processing.CurrentStep = step
	s.Processing.Steps[step] = StepStatus{Status: status, Timestamp: now}
	if message != "" {
		s.Processing.Log = append(s.Processing.Log, LogEntry{Step: step, Message: message, Timestamp: now})
	}
}

// Complete marks the analysis finished.
func (s *Session) Complete() {
	now := time.Now().UTC()
	s.Status = StatusCompleted
	s.CompletedAt = &now
}

// Fail marks the analysis failed with a reason.
func (s *Session) Fail(reason string) {
	s.Status = StatusError
	s.Processing.Error = reason
}
