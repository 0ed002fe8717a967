package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// Integration tests run only against a real database.
func testRepo(t *testing.T) *AuditRepo {
	t.Helper()
	dsn := os.Getenv("FRAUDCHECK_TEST_DSN")
	if dsn == "" {
		t.Skip("FRAUDCHECK_TEST_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewAuditRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return repo
}

func TestInsertAndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	entry := AuditEntry{
		RecordID:    "an-test-insert",
		RiskScore:   85.5,
		PageCount:   2,
		ArtifactSHA: "0123456789abcdef",
		FileName:    "check-analysis-insert.pdf",
		GeneratedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	id, err := repo.Insert(ctx, entry)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if id == 0 {
		t.Error("expected non-zero id")
	}

	entries, err := repo.ListByRecord(ctx, entry.RecordID)
	if err != nil {
		t.Fatalf("ListByRecord failed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("inserted entry not listed")
	}
	got := entries[0]
	if got.RiskScore != entry.RiskScore || got.PageCount != entry.PageCount {
		t.Errorf("listed entry %+v does not match inserted %+v", got, entry)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	old := AuditEntry{
		RecordID:    "an-test-purge",
		RiskScore:   10,
		PageCount:   1,
		ArtifactSHA: "deadbeef",
		FileName:    "check-analysis-purge.pdf",
		GeneratedAt: time.Now().UTC().AddDate(0, 0, -365),
	}
	if _, err := repo.Insert(ctx, old); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	n, err := repo.PurgeOlderThan(ctx, time.Now().UTC().AddDate(0, 0, -90))
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if n == 0 {
		t.Error("expected at least one purged entry")
	}

	entries, err := repo.ListByRecord(ctx, old.RecordID)
	if err != nil {
		t.Fatalf("ListByRecord failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("purged record still listed: %d entries", len(entries))
	}
}
