package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	session "revstrux/internal/session/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Ping(); err != nil {
		t.Fatalf("ping db: %v", err)
	}
	if _, err := db.Exec(Schema()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	s := session.New(session.NewSessionID(), session.Settings{
		Currency: "USD", PeriodStart: "2024-01", PeriodEnd: "2024-12",
	})
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != session.StatusCreated || loaded.Settings.Currency != "USD" {
		t.Fatalf("loaded = %+v", loaded)
	}

	loaded.RecordUpload("accounts", "accounts.csv", 3)
	loaded.BeginProcessing("ingestion")
	if err := repo.Update(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, err := repo.Get(ctx, s.SessionID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if again.Status != session.StatusProcessing {
		t.Fatalf("status = %s", again.Status)
	}
	if !again.UploadStatus["accounts"].Uploaded || again.UploadStatus["accounts"].Rows != 3 {
		t.Fatalf("uploads = %+v", again.UploadStatus)
	}

	count, err := repo.CountByStatus(ctx, session.StatusProcessing)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count < 1 {
		t.Fatalf("count = %d", count)
	}

	if _, err := repo.Get(ctx, "missing-session"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDataRepositoryUpsert(t *testing.T) {
	db := openTestDB(t)
	repo := NewDataRepository(db)
	ctx := context.Background()
	sessionID := session.NewSessionID()

	type slice struct {
		SubID  string  `json:"sub_id"`
		Period string  `json:"period"`
		Amount float64 `json:"amount"`
	}

	first := []slice{{SubID: "SUB-1", Period: "2024-01", Amount: 1000}}
	if err := repo.Set(ctx, sessionID, session.DataSlices, first); err != nil {
		t.Fatalf("set: %v", err)
	}
	second := []slice{
		{SubID: "SUB-1", Period: "2024-01", Amount: 1000},
		{SubID: "SUB-1", Period: "2024-02", Amount: 1000},
	}
	if err := repo.Set(ctx, sessionID, session.DataSlices, second); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var out []slice
	if err := repo.Get(ctx, sessionID, session.DataSlices, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out) != 2 || out[1].Period != "2024-02" {
		t.Fatalf("out = %+v", out)
	}

	if err := repo.Get(ctx, sessionID, session.DataScore, &out); !errors.Is(err, session.ErrDataNotFound) {
		t.Fatalf("expected ErrDataNotFound, got %v", err)
	}
}
