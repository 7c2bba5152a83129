package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleSummaries() []Summary {
	now := time.Now()
	return []Summary{
		{UserID: "u1", ID: "aaa", Title: "Post A", Summary: "Sum A", URL: "https://a.com", CreatedAt: "2025-03-14 06:00:00", FetchedAt: now.Add(-1 * time.Hour)},
		{UserID: "u1", ID: "bbb", Title: "Post B", Summary: "Sum B", URL: "https://b.com", CreatedAt: "2025-03-13 06:00:00", FetchedAt: now.Add(-2 * time.Hour)},
		{UserID: "u2", ID: "aaa", Title: "Post A", Summary: "Sum A", URL: "https://a.com", CreatedAt: "2025-03-14 06:00:00", FetchedAt: now.Add(-48 * time.Hour)},
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertSummaries(sampleSummaries()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetSummaries("u1", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries for u1, got %d", len(got))
	}
	if got[0].ID != "aaa" {
		t.Errorf("expected most recently fetched first, got %s", got[0].ID)
	}
	if got[0].CreatedAt != "2025-03-14 06:00:00" {
		t.Errorf("expected raw created_at preserved, got %q", got[0].CreatedAt)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	summaries := sampleSummaries()
	if err := db.UpsertSummaries(summaries); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	summaries[0].Summary = "Updated"
	if err := db.UpsertSummaries(summaries[:1]); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := db.GetSummaries("u1", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries after upsert, got %d", len(got))
	}
	if got[0].Summary != "Updated" {
		t.Errorf("expected updated summary, got %q", got[0].Summary)
	}
}

func TestGetLimit(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertSummaries(sampleSummaries()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetSummaries("u1", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 summary with limit, got %d", len(got))
	}
}

func TestEmptyDB(t *testing.T) {
	db := testDB(t)

	got, err := db.GetSummaries("nobody", 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected 0 summaries in empty db, got %d", len(got))
	}
}

func TestPruneDeletesOld(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertSummaries(sampleSummaries()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := db.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 pruned, got %d", deleted)
	}

	got, _ := db.GetSummaries("u2", 0)
	if len(got) != 0 {
		t.Errorf("expected u2 summary pruned, got %d", len(got))
	}
}

func TestPruneNothingToDelete(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertSummaries(sampleSummaries()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	deleted, err := db.Prune(365 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 pruned, got %d", deleted)
	}
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.UpsertSummaries(sampleSummaries()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	count, size, err := db.Stats(dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if size == 0 {
		t.Error("expected non-zero db size")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)

	if _, err := db.LoadSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	want := Session{
		UserID:       "uid-1",
		Email:        "a@example.com",
		IDToken:      "id",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2025, 3, 14, 6, 0, 0, 0, time.UTC),
	}
	if err := db.SaveSession(want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := db.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.UserID != want.UserID || got.RefreshToken != want.RefreshToken || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("session mismatch: got %+v, want %+v", got, want)
	}

	if err := db.DeleteSession(); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := db.LoadSession(); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after delete, got %v", err)
	}
}

func TestOpenCreatesDir(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "deep", "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("opening db in nested dir: %v", err)
	}
	db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}
}
