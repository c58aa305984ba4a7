package sqlitemigrate_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"gametune/internal/platform/storage/sqlitemigrate"

	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB, query string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func TestApplyRecordsEachFileOnce(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	migrations := fstest.MapFS{
		"perf/001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
	}
	for i := 0; i < 2; i++ {
		if err := sqlitemigrate.Apply(context.Background(), db, migrations, "perf"); err != nil {
			t.Fatalf("apply #%d: %v", i, err)
		}
	}
	if got := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
		t.Fatalf("expected one migration row, got %d", got)
	}
	if got := count(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='items'"); got != 1 {
		t.Fatalf("expected items table to exist")
	}
}

func TestApplySeparatesRoots(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	migrations := fstest.MapFS{
		"a/001_init.sql": &fstest.MapFile{Data: []byte("CREATE TABLE a_items(id TEXT);")},
		"b/001_init.sql": &fstest.MapFile{Data: []byte("CREATE TABLE b_items(id TEXT);")},
	}
	if err := sqlitemigrate.Apply(context.Background(), db, migrations, "a"); err != nil {
		t.Fatalf("apply a: %v", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), db, migrations, "b"); err != nil {
		t.Fatalf("apply b: %v", err)
	}
	if got := count(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 2 {
		t.Fatalf("expected two migration rows, got %d", got)
	}
}

func TestExtractUp(t *testing.T) {
	t.Parallel()
	got := sqlitemigrate.ExtractUp("-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;")
	if got != "\nSELECT 1;\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if sqlitemigrate.ExtractUp("SELECT 3;") != "SELECT 3;" {
		t.Fatalf("file without markers must be returned whole")
	}
}
