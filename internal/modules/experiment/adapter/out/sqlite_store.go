package out

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gametune/internal/modules/experiment/domain"
	expout "gametune/internal/modules/experiment/port/out"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/storage/sqlitedb"
)

//go:embed migrations/experiment/*.sql
var migrations embed.FS

// SQLiteStores holds the three experiment stores over one database.
type SQLiteStores struct {
	Experiments expout.Store
	Samples     expout.SampleStore
	Alerts      expout.AlertLog
}

func NewSQLiteStores(ctx context.Context, db *sql.DB) (SQLiteStores, error) {
	if err := sqlitedb.Migrate(ctx, db, migrations, "migrations/experiment"); err != nil {
		return SQLiteStores{}, err
	}
	return SQLiteStores{
		Experiments: &SQLiteStore{db: db},
		Samples:     &SQLiteSampleStore{db: db},
		Alerts:      &SQLiteAlertLog{db: db},
	}, nil
}

type SQLiteStore struct {
	db *sql.DB
}

func (s *SQLiteStore) Create(ctx context.Context, cfg domain.Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode experiment: %w", err)
	}
	const stmt = `
INSERT INTO experiments (id, payload, created_at, seq)
VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM experiments));
`
	_, err = s.db.ExecContext(ctx, stmt, cfg.ID, string(payload), cfg.CreatedAt.UnixMilli())
	if err != nil && sqlitedb.IsConstraint(err) {
		return fmt.Errorf("experiment %q already exists: %w", cfg.ID, apperrors.ErrInvalidInput)
	}
	return sqlitedb.MapError("create experiment", err)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.Config, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM experiments WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Config{}, apperrors.NotFound("experiment", id)
	}
	if err != nil {
		return domain.Config{}, sqlitedb.MapError("load experiment", err)
	}
	return decodeConfig(payload)
}

func (s *SQLiteStore) Update(ctx context.Context, cfg domain.Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode experiment: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE experiments SET payload = ? WHERE id = ?`, string(payload), cfg.ID)
	if err != nil {
		return sqlitedb.MapError("update experiment", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("experiment", cfg.ID)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.Config, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM experiments ORDER BY seq`)
	if err != nil {
		return nil, sqlitedb.MapError("list experiments", err)
	}
	defer rows.Close()
	var out []domain.Config
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		cfg, err := decodeConfig(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

func decodeConfig(payload string) (domain.Config, error) {
	cfg := domain.Config{}
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("decode experiment: %w", err)
	}
	return cfg, nil
}

type SQLiteSampleStore struct {
	db *sql.DB
}

func (s *SQLiteSampleStore) Append(ctx context.Context, sample domain.MetricSample) (bool, error) {
	payload, err := json.Marshal(sample)
	if err != nil {
		return false, fmt.Errorf("encode sample: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, sqlitedb.MapError("begin sample", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO experiment_samples (experiment_id, player_id, game_id, recorded_at, payload) VALUES (?, ?, ?, ?, ?)`,
		sample.ExperimentID, sample.PlayerID, sample.GameID, sample.RecordedAt.UnixMilli(), string(payload),
	); err != nil {
		return false, sqlitedb.MapError("append sample", err)
	}
	res, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO experiment_participants (experiment_id, player_id, game_id) VALUES (?, ?, ?)`,
		sample.ExperimentID, sample.PlayerID, sample.GameID,
	)
	if err != nil {
		return false, sqlitedb.MapError("mark participant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark participant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, sqlitedb.MapError("commit sample", err)
	}
	return n > 0, nil
}

func (s *SQLiteSampleStore) Samples(ctx context.Context, experimentID string) ([]domain.MetricSample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM experiment_samples WHERE experiment_id = ? ORDER BY id`, experimentID)
	if err != nil {
		return nil, sqlitedb.MapError("list samples", err)
	}
	defer rows.Close()
	var out []domain.MetricSample
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample := domain.MetricSample{}
		if err := json.Unmarshal([]byte(payload), &sample); err != nil {
			return nil, fmt.Errorf("decode sample: %w", err)
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}

func (s *SQLiteSampleStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return deleteOlder(ctx, s.db, "prune samples", `DELETE FROM experiment_samples WHERE recorded_at < ?`, cutoff)
}

type SQLiteAlertLog struct {
	db *sql.DB
}

func (l *SQLiteAlertLog) Append(ctx context.Context, alert domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO experiment_alerts (experiment_id, raised_at, payload) VALUES (?, ?, ?)`,
		alert.ExperimentID, alert.RaisedAt.UnixMilli(), string(payload),
	)
	if err != nil {
		return sqlitedb.MapError("append alert", err)
	}
	const trim = `
DELETE FROM experiment_alerts
WHERE experiment_id = ? AND id NOT IN (
  SELECT id FROM experiment_alerts WHERE experiment_id = ? ORDER BY id DESC LIMIT ?
);
`
	_, err = l.db.ExecContext(ctx, trim, alert.ExperimentID, alert.ExperimentID, domain.AlertHistory)
	return sqlitedb.MapError("trim alerts", err)
}

func (l *SQLiteAlertLog) Recent(ctx context.Context, experimentID string, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = domain.AlertHistory
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT payload FROM (SELECT id, payload FROM experiment_alerts WHERE experiment_id = ? ORDER BY id DESC LIMIT ?) ORDER BY id`,
		experimentID, limit,
	)
	if err != nil {
		return nil, sqlitedb.MapError("list alerts", err)
	}
	defer rows.Close()
	var out []domain.Alert
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alert := domain.Alert{}
		if err := json.Unmarshal([]byte(payload), &alert); err != nil {
			return nil, fmt.Errorf("decode alert: %w", err)
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}

func (l *SQLiteAlertLog) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return deleteOlder(ctx, l.db, "prune alerts", `DELETE FROM experiment_alerts WHERE raised_at < ?`, cutoff)
}

func deleteOlder(ctx context.Context, db *sql.DB, op, stmt string, cutoff time.Time) (int, error) {
	res, err := db.ExecContext(ctx, stmt, cutoff.UnixMilli())
	if err != nil {
		return 0, sqlitedb.MapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}
