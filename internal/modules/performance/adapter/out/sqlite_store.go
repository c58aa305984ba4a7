package out

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gametune/internal/modules/performance/domain"
	perfout "gametune/internal/modules/performance/port/out"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/storage/sqlitedb"
)

//go:embed migrations/performance/*.sql
var migrations embed.FS

// SQLiteStore keeps each record as one JSON document keyed by game and player.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, db *sql.DB) (perfout.Store, error) {
	if err := sqlitedb.Migrate(ctx, db, migrations, "migrations/performance"); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key domain.Key) (domain.PlayerPerformance, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM player_performance WHERE game_id = ? AND player_id = ?`,
		key.GameID, key.PlayerID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerPerformance{}, apperrors.NotFound("performance record", key.String())
	}
	if err != nil {
		return domain.PlayerPerformance{}, sqlitedb.MapError("load performance", err)
	}
	perf := domain.PlayerPerformance{}
	if err := json.Unmarshal([]byte(payload), &perf); err != nil {
		return domain.PlayerPerformance{}, fmt.Errorf("decode performance %s: %w", key, err)
	}
	return perf, nil
}

func (s *SQLiteStore) Save(ctx context.Context, perf domain.PlayerPerformance) error {
	payload, err := json.Marshal(perf)
	if err != nil {
		return fmt.Errorf("encode performance: %w", err)
	}
	const stmt = `
INSERT INTO player_performance (game_id, player_id, payload, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(game_id, player_id) DO UPDATE SET
  payload=excluded.payload,
  updated_at=excluded.updated_at;
`
	_, err = s.db.ExecContext(ctx, stmt, perf.GameID, perf.PlayerID, string(payload), perf.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return sqlitedb.MapError("save performance", err)
}

func (s *SQLiteStore) Delete(ctx context.Context, key domain.Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM player_performance WHERE game_id = ? AND player_id = ?`, key.GameID, key.PlayerID)
	return sqlitedb.MapError("delete performance", err)
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]domain.Key, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game_id, player_id FROM player_performance ORDER BY game_id, player_id`)
	if err != nil {
		return nil, sqlitedb.MapError("list performance keys", err)
	}
	defer rows.Close()
	var keys []domain.Key
	for rows.Next() {
		key := domain.Key{}
		if err := rows.Scan(&key.GameID, &key.PlayerID); err != nil {
			return nil, fmt.Errorf("scan performance key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
