package memory

import (
	"context"
	"testing"

	session "revstrux/internal/session/domain"
)

func TestSessionRoundTrip(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	s := session.New("abc123", session.Settings{Currency: "USD", PeriodStart: "2025-01", PeriodEnd: "2025-12"})
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := repo.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loaded.Settings.PeriodEnd != "2025-12" {
		t.Errorf("loaded settings = %+v", loaded.Settings)
	}

	// Stored state must not alias the caller's struct.
	s.Settings.Currency = "EUR"
	loaded2, _ := repo.Get(ctx, "abc123")
	if loaded2.Settings.Currency != "USD" {
		t.Error("repository leaked a mutable reference")
	}
}

func TestSessionUpdateAndCount(t *testing.T) {
	repo := NewSessionRepository()
	ctx := context.Background()

	if err := repo.Update(ctx, session.New("ghost", session.Settings{})); err != session.ErrNotFound {
		t.Errorf("update of missing session: err = %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		repo.Create(ctx, session.New(id, session.Settings{}))
	}
	s, _ := repo.Get(ctx, "b")
	s.Status = session.StatusProcessing
	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update: %v", err)
	}

	created, _ := repo.CountByStatus(ctx, session.StatusCreated)
	processing, _ := repo.CountByStatus(ctx, session.StatusProcessing)
	if created != 2 || processing != 1 {
		t.Errorf("counts = %d created, %d processing", created, processing)
	}
}

func TestDataRoundTrip(t *testing.T) {
	repo := NewDataRepository()
	ctx := context.Background()

	type record struct {
		ID     string  `json:"id"`
		Amount float64 `json:"amount"`
	}
	in := []record{{ID: "INV-1", Amount: 2500.50}, {ID: "INV-2", Amount: 100}}
	if err := repo.Set(ctx, "s1", session.Raw("invoices"), in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out []record
	if err := repo.Get(ctx, "s1", session.Raw("invoices"), &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(out) != 2 || out[0].Amount != 2500.50 {
		t.Errorf("out = %+v", out)
	}

	if err := repo.Get(ctx, "s1", session.DataScore, &out); err != session.ErrDataNotFound {
		t.Errorf("missing dataset: err = %v", err)
	}
	if err := repo.Get(ctx, "other", session.Raw("invoices"), &out); err != session.ErrDataNotFound {
		t.Errorf("dataset is scoped per session: err = %v", err)
	}
}
