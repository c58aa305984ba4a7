package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	perfout "gametune/internal/modules/performance/adapter/out"
	"gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
	"gametune/internal/modules/performance/service"
	"gametune/internal/modules/performance/usecase"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/gameparams"
	"gametune/internal/platform/keylock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return "sess-" + string(rune('a'+s.n-1))
}

func newUsecase(clk *fakeClock) perfin.Usecase {
	svc := service.NewPerformanceService(clk, &seqID{}, perfout.NewMemoryStore(), keylock.New(time.Second), nil)
	return usecase.NewInteractor(svc)
}

func record(t *testing.T, uc perfin.Usecase, accuracy float64) dto.PerformanceOutput {
	t.Helper()
	out, err := uc.RecordSession(context.Background(), dto.RecordSessionInput{
		GameID:     "word-match",
		PlayerID:   "p1",
		Parameters: gameparams.GameParameters{ProblemCount: 10},
		Result:     dto.SessionResult{TotalProblems: 10, ProblemsAttempted: 10, CorrectCount: int(accuracy / 10), Accuracy: accuracy},
	})
	if err != nil {
		t.Fatalf("record session: %v", err)
	}
	return out
}

func TestRecordSessionCreatesRecordLazily(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	uc := newUsecase(clk)

	if _, err := uc.GetPerformance(context.Background(), "word-match", "p1"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found before first session, got %v", err)
	}
	record(t, uc, 80)
	out := record(t, uc, 60)
	if out.Stats.TotalSessions != 2 || out.Stats.AverageAccuracy != 70 {
		t.Fatalf("unexpected stats %+v", out.Stats)
	}
	if out.Adaptive.SessionsRecorded != 2 {
		t.Fatalf("unexpected lifetime count %d", out.Adaptive.SessionsRecorded)
	}
	if out.Sessions[0].ID != "sess-a" || out.Sessions[1].ID != "sess-b" {
		t.Fatalf("unexpected session ids %+v", out.Sessions)
	}
}

func TestRecordSessionRejectsInvalidResult(t *testing.T) {
	t.Parallel()
	uc := newUsecase(&fakeClock{now: time.Now()})
	_, err := uc.RecordSession(context.Background(), dto.RecordSessionInput{
		GameID: "", PlayerID: "p1",
		Result: dto.SessionResult{Accuracy: 140},
	})
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = uc.RecordSession(context.Background(), dto.RecordSessionInput{
		GameID: "g", PlayerID: "p1",
		Result: dto.SessionResult{Accuracy: 140, HintsUsed: -1},
	})
	var verr *apperrors.ValidationError
	if !errors.As(err, &verr) || !verr.HasRule("range") || !verr.HasRule("non_negative") {
		t.Fatalf("expected both violations reported, got %v", err)
	}
}

func TestConcurrentRecordsAreSerializedPerKey(t *testing.T) {
	t.Parallel()
	uc := newUsecase(&fakeClock{now: time.Now()})
	var wg sync.WaitGroup
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = uc.RecordSession(context.Background(), dto.RecordSessionInput{GameID: "g", PlayerID: "p", Result: dto.SessionResult{Accuracy: 50}})
		}()
	}
	wg.Wait()
	out, err := uc.GetPerformance(context.Background(), "g", "p")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Adaptive.SessionsRecorded != 15 || len(out.Sessions) != 15 {
		t.Fatalf("lost updates: recorded=%d retained=%d", out.Adaptive.SessionsRecorded, len(out.Sessions))
	}
}

func TestUpdateAdaptivePersistsCallbackWrites(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	uc := newUsecase(clk)

	if _, err := uc.UpdateAdaptive(context.Background(), "word-match", "p1", func(*dto.AdaptiveUpdate) error { return nil }); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown record, got %v", err)
	}

	record(t, uc, 50)
	record(t, uc, 55)
	out, err := uc.UpdateAdaptive(context.Background(), "word-match", "p1", func(u *dto.AdaptiveUpdate) error {
		if u.SessionCount != 2 || len(u.Accuracies) != 2 || u.Accuracies[1] != 55 {
			t.Errorf("unexpected snapshot %+v", u)
		}
		u.State.Offset = gameparams.Delta{ProblemCount: -1}
		u.State.LastAdjustedSession = u.State.SessionsRecorded
		u.State.SessionsRecorded = 99
		u.CurrentLevel = 3
		u.Append = append(u.Append, dto.Adjustment{At: clk.Now(), Reason: "low-success-rate", SessionNumber: 2})
		return nil
	})
	if err != nil {
		t.Fatalf("update adaptive: %v", err)
	}
	if out.Adaptive.Offset.ProblemCount != -1 || out.Adaptive.LastAdjustedSession != 2 || out.CurrentLevel != 3 {
		t.Fatalf("callback writes not persisted: %+v", out)
	}
	if out.Adaptive.SessionsRecorded != 2 {
		t.Fatalf("lifetime count must not be writable, got %d", out.Adaptive.SessionsRecorded)
	}
	if len(out.Adjustments) != 1 || out.Adjustments[0].Reason != "low-success-rate" {
		t.Fatalf("unexpected adjustments %+v", out.Adjustments)
	}
}

func TestPruneOlderThanDeletesEmptyRecords(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	uc := newUsecase(clk)
	record(t, uc, 70)
	clk.Advance(40 * 24 * time.Hour)
	record(t, uc, 80)
	if _, err := uc.RecordSession(context.Background(), dto.RecordSessionInput{GameID: "word-match", PlayerID: "old", Result: dto.SessionResult{Accuracy: 10}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	clk.Advance(31 * 24 * time.Hour)
	record(t, uc, 90)

	report, err := uc.PruneOlderThan(context.Background(), clk.Now().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if report.Records != 2 || report.RecordsDeleted != 1 || report.SessionsRemoved != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	out, err := uc.GetPerformance(context.Background(), "word-match", "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out.Sessions) != 1 || out.Sessions[0].Result.Accuracy != 90 {
		t.Fatalf("unexpected remaining sessions %+v", out.Sessions)
	}
	if out.Adaptive.SessionsRecorded != 3 {
		t.Fatalf("pruning must keep lifetime count, got %d", out.Adaptive.SessionsRecorded)
	}
	if _, err := uc.GetPerformance(context.Background(), "word-match", "old"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected emptied record to be deleted, got %v", err)
	}
}

func TestRecordLockIsScopedToPerformance(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	locks := keylock.New(20 * time.Millisecond)
	uc := usecase.NewInteractor(service.NewPerformanceService(clk, &seqID{}, perfout.NewMemoryStore(), locks, nil))

	// a game named "experiment" must not contend with experiment locks
	unlock, err := locks.Lock(context.Background(), "experiment/p1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()
	_, err = uc.RecordSession(context.Background(), dto.RecordSessionInput{
		GameID:   "experiment",
		PlayerID: "p1",
		Result:   dto.SessionResult{TotalProblems: 10, ProblemsAttempted: 10, CorrectCount: 8, Accuracy: 80},
	})
	if err != nil {
		t.Fatalf("record blocked by an unrelated lock: %v", err)
	}
}
