package out_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	perfout "gametune/internal/modules/performance/adapter/out"
	"gametune/internal/modules/performance/domain"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/storage/sqlitedb"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "gametune.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	store, err := perfout.NewSQLiteStore(ctx, db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	// a second construction must not re-run migrations
	if _, err := perfout.NewSQLiteStore(ctx, db); err != nil {
		t.Fatalf("reopen store: %v", err)
	}

	key := domain.Key{GameID: "word-match", PlayerID: "p1"}
	if _, err := store.Load(ctx, key); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	perf := domain.New(key)
	perf.AddSession(domain.GameSession{
		ID:         "s1",
		RecordedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Result:     domain.SessionResult{Accuracy: 72, MasteredConcepts: []string{"verbs"}},
	})
	perf.Adjustments = append(perf.Adjustments, domain.AdaptiveAdjustment{Reason: domain.ReasonPlayerFeedback, SessionNumber: 1})
	if err := store.Save(ctx, perf); err != nil {
		t.Fatalf("save: %v", err)
	}
	perf.CurrentLevel = 2
	if err := store.Save(ctx, perf); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := store.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CurrentLevel != 2 || len(loaded.Sessions) != 1 || loaded.Sessions[0].Result.MasteredConcepts[0] != "verbs" {
		t.Fatalf("unexpected record %+v", loaded)
	}
	if loaded.Adjustments[0].Reason != domain.ReasonPlayerFeedback {
		t.Fatalf("unexpected adjustments %+v", loaded.Adjustments)
	}

	keys, err := store.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != key {
		t.Fatalf("unexpected keys %v %v", keys, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, key); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected deleted record to be gone, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := perfout.NewMemoryStore()
	key := domain.Key{GameID: "g", PlayerID: "p"}
	perf := domain.New(key)
	perf.AddSession(domain.GameSession{ID: "s1", Result: domain.SessionResult{Accuracy: 50}})
	if err := store.Save(ctx, perf); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, _ := store.Load(ctx, key)
	loaded.Sessions[0].Result.Accuracy = 99
	again, _ := store.Load(ctx, key)
	if again.Sessions[0].Result.Accuracy != 50 {
		t.Fatalf("store shares state with callers")
	}
}
