// Package sqlitedb opens the shared SQLite database used by the durable
// adapters.
package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/storage/sqlitemigrate"

	_ "modernc.org/sqlite"
)

const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"

// Open creates the parent directory and opens dbPath with WAL and a busy
// timeout.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// Migrate applies the migrations under root of migrationFS.
func Migrate(ctx context.Context, db *sql.DB, migrationFS fs.FS, root string) error {
	if err := sqlitemigrate.Apply(ctx, db, migrationFS, root); err != nil {
		return fmt.Errorf("migrate %s: %w", root, err)
	}
	return nil
}

// MapError turns SQLite lock contention into apperrors.ErrConflict.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsBusy(err) {
		return fmt.Errorf("%s: %w: %v", op, apperrors.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") || strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_locked")
}

// IsConstraint reports a UNIQUE or PRIMARY KEY violation.
func IsConstraint(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "constraint failed") || strings.Contains(msg, "sqlite_constraint")
}
