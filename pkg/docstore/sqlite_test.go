package docstore

import (
	"context"
	"io"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgdocs/pkg/docs"
	pkgerrors "github.com/matzehuels/pkgdocs/pkg/errors"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), testLogger())
	if err != nil {
		t.Fatalf("NewSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDoc() docs.Documentation {
	return docs.Documentation{
		Name:        "express",
		Version:     "4.18.2",
		Description: "Fast, unopinionated, minimalist web framework",
		Homepage:    "http://expressjs.com/",
		Repository:  "https://github.com/expressjs/express",
		Author:      "TJ Holowaychuk",
		License:     "MIT",
		Keywords:    []string{"express", "framework", "web"},
		Dependencies: map[string]string{
			"accepts":    "~1.3.8",
			"body-parser": "1.20.1",
		},
		DevDependencies: map[string]string{
			"mocha": "10.2.0",
		},
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	doc := sampleDoc()

	if err := s.Set(ctx, "express", doc, 30*time.Second); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	entry, err := s.Get(ctx, "express")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if entry == nil {
		t.Fatal("Get() returned nil for existing entry")
	}
	if !reflect.DeepEqual(entry.Documentation, doc) {
		t.Errorf("Documentation = %+v, want %+v", entry.Documentation, doc)
	}
	if entry.TTL != 30*time.Second {
		t.Errorf("TTL = %v, want 30s", entry.TTL)
	}
	if entry.PackageName != "express" {
		t.Errorf("PackageName = %q, want %q", entry.PackageName, "express")
	}
	if time.Since(entry.FetchedAt) > time.Minute {
		t.Errorf("FetchedAt = %v, want recent", entry.FetchedAt)
	}
}

func TestSQLite_GetMiss(t *testing.T) {
	s := newTestSQLite(t)

	entry, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if entry != nil {
		t.Errorf("Get() = %+v, want nil for missing entry", entry)
	}
}

func TestSQLite_SetOverwrites(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	doc := sampleDoc()
	if err := s.Set(ctx, "express", doc, time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	doc.Version = "5.0.0"
	if err := s.Set(ctx, "express", doc, 2*time.Hour); err != nil {
		t.Fatalf("second Set() failed: %v", err)
	}

	entry, err := s.Get(ctx, "express")
	if err != nil || entry == nil {
		t.Fatalf("Get() = %v, %v", entry, err)
	}
	if entry.Documentation.Version != "5.0.0" {
		t.Errorf("Version = %q, want %q after overwrite", entry.Documentation.Version, "5.0.0")
	}
	if entry.TTL != 2*time.Hour {
		t.Errorf("TTL = %v, want 2h after overwrite", entry.TTL)
	}
}

func TestSQLite_ValidityBoundary(t *testing.T) {
	tests := []struct {
		name  string
		ttl   int64
		valid bool
	}{
		{"elapsed exactly", 10, false},
		{"one second left", 11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSQLite(t)
			ctx := context.Background()

			if err := s.Set(ctx, "express", sampleDoc(), time.Hour); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}

			// Backdate the entry so that exactly 10 seconds of its life
			// have elapsed.
			fetchedAt := time.Now().Unix() - 10
			if _, err := s.db.Exec(
				`UPDATE documentation_cache SET fetched_at = ?, ttl = ? WHERE package_name = ?`,
				fetchedAt, tt.ttl, "express"); err != nil {
				t.Fatalf("failed to backdate entry: %v", err)
			}

			if got := s.IsValid(ctx, "express"); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v (ttl=%d)", got, tt.valid, tt.ttl)
			}
		})
	}
}

func TestSQLite_IsValidMissing(t *testing.T) {
	s := newTestSQLite(t)
	if s.IsValid(context.Background(), "nonexistent") {
		t.Error("IsValid() = true for missing entry")
	}
}

func TestSQLite_CorruptionSelfHeals(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Set(ctx, "express", sampleDoc(), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	// Replace the stored payload with unparsable content.
	if _, err := s.db.Exec(
		`UPDATE documentation_cache SET documentation = ? WHERE package_name = ?`,
		"{not json", "express"); err != nil {
		t.Fatalf("failed to corrupt entry: %v", err)
	}

	entry, err := s.Get(ctx, "express")
	if err != nil {
		t.Fatalf("Get() on corrupted entry should not error, got %v", err)
	}
	if entry != nil {
		t.Errorf("Get() = %+v, want nil for corrupted entry", entry)
	}

	// The entry was deleted, not left dangling.
	entry, err = s.Get(ctx, "express")
	if err != nil || entry != nil {
		t.Errorf("second Get() = %v, %v; want nil, nil", entry, err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documentation_cache`).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("row count = %d, want 0 after self-heal", count)
	}
}

func TestSQLite_Invalidate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Set(ctx, "express", sampleDoc(), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Invalidate(ctx, "express"); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}
	if s.IsValid(ctx, "express") {
		t.Error("IsValid() = true after Invalidate()")
	}

	// Invalidating an absent entry is a no-op.
	if err := s.Invalidate(ctx, "express"); err != nil {
		t.Errorf("Invalidate() on absent entry failed: %v", err)
	}
}

func TestSQLite_InvalidateAll(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	packages := []string{"express", "react", "lodash"}
	for _, pkg := range packages {
		doc := sampleDoc()
		doc.Name = pkg
		if err := s.Set(ctx, pkg, doc, time.Hour); err != nil {
			t.Fatalf("Set(%s) failed: %v", pkg, err)
		}
	}

	if err := s.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() failed: %v", err)
	}

	for _, pkg := range packages {
		if s.IsValid(ctx, pkg) {
			t.Errorf("IsValid(%s) = true after InvalidateAll()", pkg)
		}
	}
}

func TestSQLite_CloseIdempotent(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), testLogger())
	if err != nil {
		t.Fatalf("NewSQLite() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
}

func TestSQLite_IsValidFailsClosedAfterClose(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), testLogger())
	if err != nil {
		t.Fatalf("NewSQLite() failed: %v", err)
	}
	if err := s.Set(context.Background(), "express", sampleDoc(), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	s.Close()

	if s.IsValid(context.Background(), "express") {
		t.Error("IsValid() = true on closed store, want false (fail closed)")
	}
}

func TestSQLite_SchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s1, err := NewSQLite(path, testLogger())
	if err != nil {
		t.Fatalf("first NewSQLite() failed: %v", err)
	}
	if err := s1.Set(context.Background(), "express", sampleDoc(), time.Hour); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	s1.Close()

	// Reopening the same file preserves data and reapplies the schema
	// without error.
	s2, err := NewSQLite(path, testLogger())
	if err != nil {
		t.Fatalf("second NewSQLite() failed: %v", err)
	}
	defer s2.Close()

	entry, err := s2.Get(context.Background(), "express")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	if entry == nil {
		t.Fatal("entry lost after reopen")
	}
}

func TestSQLite_EmptyPathRejected(t *testing.T) {
	_, err := NewSQLite("", testLogger())
	if err == nil {
		t.Fatal("NewSQLite(\"\") should fail")
	}
	if pkgerrors.GetCode(err) != pkgerrors.ErrCodeCacheInit {
		t.Errorf("error code = %v, want %v", pkgerrors.GetCode(err), pkgerrors.ErrCodeCacheInit)
	}
}
