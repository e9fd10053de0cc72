package session

import (
	"testing"

	identity "revstrux/internal/identity/domain"
	"revstrux/internal/ingest"
)

func TestNewSession(t *testing.T) {
	s := New("abc123", Settings{Currency: "USD", PeriodStart: "2025-01", PeriodEnd: "2025-12"})
	if s.Status != StatusCreated {
		t.Errorf("status = %s", s.Status)
	}
	if s.Settings.Currency != "USD" {
		t.Errorf("currency = %s", s.Settings.Currency)
	}
	if len(s.UploadStatus) != len(ingest.FileTypes) {
		t.Errorf("upload status entries = %d, want one per file type", len(s.UploadStatus))
	}
	if s.UploadStatus[ingest.TypeAccounts].Uploaded {
		t.Error("fresh session should have nothing uploaded")
	}
	if s.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if len(a) != 12 {
		t.Errorf("id length = %d, want 12", len(a))
	}
	if a == b {
		t.Error("ids should be unique")
	}
}

func TestDecideReplacesEarlierVerdict(t *testing.T) {
	s := New("s1", Settings{})
	if err := s.Decide("m1", "confirmed"); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if err := s.Decide("m2", "rejected"); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if err := s.Decide("m1", "rejected"); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if len(s.Decisions) != 2 {
		t.Fatalf("decisions = %d, want 2 (m1 replaced, not duplicated)", len(s.Decisions))
	}
	last := s.Decisions[len(s.Decisions)-1]
	if last.MatchID != "m1" || last.Decision != "rejected" {
		t.Errorf("last decision = %+v", last)
	}
	if len(s.DecisionHistory) != 3 {
		t.Errorf("history entries = %d, want one per action", len(s.DecisionHistory))
	}
}

func TestDecideValidation(t *testing.T) {
	s := New("s1", Settings{})
	if err := s.Decide("", "confirmed"); err != ErrInvalidDecision {
		t.Errorf("empty match id: err = %v", err)
	}
	if err := s.Decide("m1", "maybe"); err != ErrInvalidDecision {
		t.Errorf("bad verdict: err = %v", err)
	}
}

func TestUndoAndReset(t *testing.T) {
	s := New("s1", Settings{})
	if _, err := s.Undo(); err != ErrNoDecisions {
		t.Errorf("undo on empty list: err = %v", err)
	}
	s.Decide("m1", "confirmed")
	s.Decide("m2", "rejected")
	removed, err := s.Undo()
	if err != nil || removed.MatchID != "m2" {
		t.Fatalf("undo = %+v, %v", removed, err)
	}
	if len(s.Decisions) != 1 {
		t.Errorf("decisions after undo = %d", len(s.Decisions))
	}
	if cleared := s.ResetDecisions(); cleared != 1 {
		t.Errorf("reset cleared %d, want 1", cleared)
	}
	if len(s.Decisions) != 0 {
		t.Error("decisions remain after reset")
	}
	last := s.DecisionHistory[len(s.DecisionHistory)-1]
	if last.Action != "reset" || last.Count != 1 {
		t.Errorf("history tail = %+v", last)
	}
}

func TestPendingReview(t *testing.T) {
	s := New("s1", Settings{})
	if got := s.PendingReview(); got != nil {
		t.Errorf("no identity result yet: pending = %v", got)
	}
	s.IdentityResult = &identity.ResolveResult{NeedsReview: []identity.ReviewMatch{
		{MatchID: "m1"}, {MatchID: "m2"}, {MatchID: "m3"},
	}}
	s.Decide("m2", "confirmed")
	pending := s.PendingReview()
	if len(pending) != 2 || pending[0] != "m1" || pending[1] != "m3" {
		t.Errorf("pending = %v", pending)
	}
}

func TestProcessingLifecycle(t *testing.T) {
	s := New("s1", Settings{})
	s.BeginProcessing("ingestion")
	if s.Status != StatusProcessing || s.Processing.CurrentStep != "ingestion" {
		t.Fatalf("session = %s / %s", s.Status, s.Processing.CurrentStep)
	}
	s.LogStep("ingestion", StepRunning, "Loading validated data...")
	s.LogStep("ingestion", StepComplete, "Loaded 60 accounts, 70 subscriptions, 800 invoices")
	s.LogStep("identity", StepRunning, "")
	if s.Processing.Steps["ingestion"].Status != StepComplete {
		t.Errorf("ingestion step = %+v", s.Processing.Steps["ingestion"])
	}
	if len(s.Processing.Log) != 2 {
		t.Errorf("log lines = %d, want 2 (empty messages are not logged)", len(s.Processing.Log))
	}
	s.Complete()
	if s.Status != StatusCompleted || s.CompletedAt == nil {
		t.Errorf("completed: %s, %v", s.Status, s.CompletedAt)
	}

	s2 := New("s2", Settings{})
	s2.BeginProcessing("ingestion")
	s2.Fail("boom")
	if s2.Status != StatusError || s2.Processing.Error != "boom" {
		t.Errorf("failed: %s, %q", s2.Status, s2.Processing.Error)
	}
}
