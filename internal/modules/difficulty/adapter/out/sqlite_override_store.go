package out

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gametune/internal/modules/difficulty/domain"
	diffout "gametune/internal/modules/difficulty/port/out"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/storage/sqlitedb"
)

//go:embed migrations/difficulty/*.sql
var migrations embed.FS

type SQLiteOverrideStore struct {
	db *sql.DB
}

func NewSQLiteOverrideStore(ctx context.Context, db *sql.DB) (diffout.OverrideStore, error) {
	if err := sqlitedb.Migrate(ctx, db, migrations, "migrations/difficulty"); err != nil {
		return nil, err
	}
	return &SQLiteOverrideStore{db: db}, nil
}

func (s *SQLiteOverrideStore) Put(ctx context.Context, o domain.Override) error {
	patch, err := json.Marshal(o.Patch)
	if err != nil {
		return fmt.Errorf("encode override patch: %w", err)
	}
	const stmt = `
INSERT INTO parameter_overrides (game_id, player_id, patch, note, created_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(game_id, player_id) DO UPDATE SET
  patch=excluded.patch,
  note=excluded.note,
  created_at=excluded.created_at,
  expires_at=excluded.expires_at;
`
	_, err = s.db.ExecContext(ctx, stmt, o.GameID, o.PlayerID, string(patch), o.Note, o.CreatedAt.UnixMilli(), o.ExpiresAt.UnixMilli())
	return sqlitedb.MapError("save override", err)
}

func (s *SQLiteOverrideStore) Get(ctx context.Context, gameID, playerID string) (domain.Override, error) {
	var (
		patch              string
		created, expiresAt int64
	)
	o := domain.Override{GameID: gameID, PlayerID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT patch, note, created_at, expires_at FROM parameter_overrides WHERE game_id = ? AND player_id = ?`,
		gameID, playerID,
	).Scan(&patch, &o.Note, &created, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Override{}, apperrors.NotFound("override", gameID+"/"+playerID)
	}
	if err != nil {
		return domain.Override{}, sqlitedb.MapError("load override", err)
	}
	o.Patch = gameparams.Patch{}
	if err := json.Unmarshal([]byte(patch), &o.Patch); err != nil {
		return domain.Override{}, fmt.Errorf("decode override patch: %w", err)
	}
	o.CreatedAt = time.UnixMilli(created).UTC()
	o.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return o, nil
}

func (s *SQLiteOverrideStore) Delete(ctx context.Context, gameID, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parameter_overrides WHERE game_id = ? AND player_id = ?`, gameID, playerID)
	return sqlitedb.MapError("delete override", err)
}

func (s *SQLiteOverrideStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parameter_overrides WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, sqlitedb.MapError("purge overrides", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge overrides: %w", err)
	}
	return int(n), nil
}
