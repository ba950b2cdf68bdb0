package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hsmtools/hsmcheck/internal/probe"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	verdicts := []probe.Verdict{
		{Severity: probe.OK, Message: "All OK"},
		{Severity: probe.Critical, Message: "Communication Test FAILED."},
		{Severity: probe.Warning, Message: "HSM User storage usage 90.00% exceeded threshold"},
	}
	for _, v := range verdicts {
		if err := store.Record(ctx, 1, v, 250*time.Millisecond); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Severity != "WARNING" || entries[0].ExitCode != 1 {
		t.Errorf("entry 0 = %s/%d, want WARNING/1", entries[0].Severity, entries[0].ExitCode)
	}
	if entries[2].Severity != "OK" || entries[2].ExitCode != 0 {
		t.Errorf("entry 2 = %s/%d, want OK/0", entries[2].Severity, entries[2].ExitCode)
	}
	if entries[1].Message != "Communication Test FAILED." {
		t.Errorf("unexpected message: %q", entries[1].Message)
	}
	if entries[0].Slot != 1 {
		t.Errorf("slot = %d, want 1", entries[0].Slot)
	}
	if entries[0].DurationMs != 250 {
		t.Errorf("duration = %dms, want 250", entries[0].DurationMs)
	}
	if entries[0].CheckedAt.IsZero() {
		t.Error("checked_at not recorded")
	}
}

func TestRecentLimit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for range 5 {
		if err := store.Record(ctx, 1, probe.Verdict{Severity: probe.OK, Message: "All OK"}, time.Millisecond); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestRecentEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open with missing parent: %v", err)
	}
	store.Close()
}
