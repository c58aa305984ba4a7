package out_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	expout "gametune/internal/modules/experiment/adapter/out"
	"gametune/internal/modules/experiment/domain"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/storage/sqlitedb"
)

var created = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func openStores(t *testing.T) expout.SQLiteStores {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "gametune.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	stores, err := expout.NewSQLiteStores(context.Background(), db)
	if err != nil {
		t.Fatalf("new stores: %v", err)
	}
	return stores
}

func config(id string, at time.Time) domain.Config {
	return domain.Config{
		ID:          id,
		Name:        id,
		StartAt:     at,
		EndAt:       at.Add(time.Hour),
		TargetGames: []string{"word-match"},
		SampleSize:  100,
		Active:      true,
		CreatedAt:   at,
		Variants: []domain.Variant{
			{ID: "A", Weight: 50},
			{ID: "B", Weight: 50, Overrides: gameparams.Patch{RetryLimit: gameparams.Int(5)}},
		},
		Monitoring: domain.DefaultMonitoring(),
	}
}

func TestSQLiteExperimentStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openStores(t).Experiments

	if _, err := store.Get(ctx, "x"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Create(ctx, config("second", created.Add(time.Minute))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, config("first", created)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, config("first", created)); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	cfg, err := store.Get(ctx, "second")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.Variants[1].Overrides.RetryLimit == nil || *cfg.Variants[1].Overrides.RetryLimit != 5 {
		t.Fatalf("variant overrides lost: %+v", cfg.Variants[1])
	}
	cfg.Active = false
	cfg.Result = &domain.Result{ExperimentID: "second", Reason: "manual"}
	if err := store.Update(ctx, cfg); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Update(ctx, config("missing", created)); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "second" || list[1].ID != "first" {
		t.Fatalf("list order = %v", list)
	}
	if list[0].Active || list[0].Result == nil || list[0].Result.Reason != "manual" {
		t.Fatalf("update not persisted: %+v", list[0])
	}
}

func TestSQLiteSampleStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	samples := openStores(t).Samples

	old := domain.MetricSample{ExperimentID: "e", VariantID: "A", PlayerID: "p1", GameID: "g", RecordedAt: created, Accuracy: 60}
	first, err := samples.Append(ctx, old)
	if err != nil || !first {
		t.Fatalf("first append: %v %v", first, err)
	}
	recent := old
	recent.RecordedAt = created.Add(48 * time.Hour)
	recent.Accuracy = 70
	again, err := samples.Append(ctx, recent)
	if err != nil || again {
		t.Fatalf("second append: %v %v", again, err)
	}
	got, err := samples.Samples(ctx, "e")
	if err != nil || len(got) != 2 || got[0].Accuracy != 60 || got[1].Accuracy != 70 {
		t.Fatalf("samples = %+v %v", got, err)
	}

	removed, err := samples.PruneOlderThan(ctx, created.Add(24*time.Hour))
	if err != nil || removed != 1 {
		t.Fatalf("prune = %d %v", removed, err)
	}
	// pruning keeps the participation mark
	third, err := samples.Append(ctx, recent)
	if err != nil || third {
		t.Fatalf("append after prune: %v %v", third, err)
	}
}

func TestSQLiteAlertLogKeepsNewest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	alerts := openStores(t).Alerts
	for i := 0; i < domain.AlertHistory+5; i++ {
		err := alerts.Append(ctx, domain.Alert{ExperimentID: "e", Message: fmt.Sprintf("a%d", i), RaisedAt: created.Add(time.Duration(i) * time.Minute)})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	recent, err := alerts.Recent(ctx, "e", 10)
	if err != nil || len(recent) != 10 || recent[9].Message != fmt.Sprintf("a%d", domain.AlertHistory+4) {
		t.Fatalf("recent = %+v %v", recent, err)
	}
	all, err := alerts.Recent(ctx, "e", 0)
	if err != nil || len(all) != domain.AlertHistory || all[0].Message != "a5" {
		t.Fatalf("all = %d %v", len(all), err)
	}
	removed, err := alerts.PruneOlderThan(ctx, created.Add(time.Hour))
	if err != nil || removed != domain.AlertHistory {
		t.Fatalf("prune = %d %v", removed, err)
	}
}
