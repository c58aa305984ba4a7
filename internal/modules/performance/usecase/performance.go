package usecase

import (
	"context"
	"time"

	"gametune/internal/modules/performance/domain"
	"gametune/internal/modules/performance/dto"
	perfin "gametune/internal/modules/performance/port/in"
	"gametune/internal/modules/performance/service"
	"gametune/internal/platform/retry"
)

type Interactor struct {
	svc *service.PerformanceService
}

func NewInteractor(svc *service.PerformanceService) perfin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) RecordSession(ctx context.Context, input dto.RecordSessionInput) (dto.PerformanceOutput, error) {
	key := domain.Key{GameID: domain.NormalizeID(input.GameID), PlayerID: domain.NormalizeID(input.PlayerID)}
	session := domain.GameSession{Parameters: input.Parameters, Result: toDomainResult(input.Result)}

	var perf domain.PlayerPerformance
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		var err error
		perf, err = i.svc.Record(ctx, key, session)
		return err
	})
	if err != nil {
		return dto.PerformanceOutput{}, err
	}
	return toOutput(perf), nil
}

func (i *Interactor) GetPerformance(ctx context.Context, gameID, playerID string) (dto.PerformanceOutput, error) {
	perf, err := i.svc.Get(ctx, domain.Key{GameID: domain.NormalizeID(gameID), PlayerID: domain.NormalizeID(playerID)})
	if err != nil {
		return dto.PerformanceOutput{}, err
	}
	return toOutput(perf), nil
}

func (i *Interactor) UpdateAdaptive(ctx context.Context, gameID, playerID string, fn func(*dto.AdaptiveUpdate) error) (dto.PerformanceOutput, error) {
	key := domain.Key{GameID: domain.NormalizeID(gameID), PlayerID: domain.NormalizeID(playerID)}
	var perf domain.PlayerPerformance
	err := retry.OnConflict(ctx, func(ctx context.Context) error {
		var err error
		perf, err = i.svc.Update(ctx, key, func(p *domain.PlayerPerformance) error {
			update := &dto.AdaptiveUpdate{
				Accuracies:   p.Accuracies(0),
				SessionCount: len(p.Sessions),
				State:        toAdaptiveOutput(p.Adaptive),
				CurrentLevel: p.CurrentLevel,
			}
			if err := fn(update); err != nil {
				return err
			}
			p.Adaptive = domain.AdaptiveState{
				Offset:               update.State.Offset,
				SessionsRecorded:     p.Adaptive.SessionsRecorded,
				LastAdjustedSession:  update.State.LastAdjustedSession,
				LastEvaluatedSession: update.State.LastEvaluatedSession,
			}
			p.CurrentLevel = update.CurrentLevel
			for _, adj := range update.Append {
				p.Adjustments = append(p.Adjustments, domain.AdaptiveAdjustment{
					At:            adj.At,
					Reason:        domain.Reason(adj.Reason),
					Delta:         adj.Delta,
					SuccessRate:   adj.SuccessRate,
					SessionNumber: adj.SessionNumber,
					Note:          adj.Note,
				})
			}
			return nil
		})
		return err
	})
	if err != nil {
		return dto.PerformanceOutput{}, err
	}
	return toOutput(perf), nil
}

func (i *Interactor) PruneOlderThan(ctx context.Context, cutoff time.Time) (dto.PruneReport, error) {
	report, err := i.svc.Prune(ctx, cutoff)
	out := dto.PruneReport{
		Records:            report.Records,
		RecordsDeleted:     report.RecordsDeleted,
		SessionsRemoved:    report.SessionsRemoved,
		AdjustmentsRemoved: report.AdjustmentsRemoved,
	}
	return out, err
}

func toDomainResult(r dto.SessionResult) domain.SessionResult {
	return domain.SessionResult{
		TotalProblems:     r.TotalProblems,
		CorrectCount:      r.CorrectCount,
		ProblemsAttempted: r.ProblemsAttempted,
		TimeSpentMS:       r.TimeSpentMS,
		HintsUsed:         r.HintsUsed,
		Retries:           r.Retries,
		Score:             r.Score,
		Accuracy:          r.Accuracy,
		AverageResponseMS: r.AverageResponseMS,
		MasteredConcepts:  append([]string(nil), r.MasteredConcepts...),
		StruggledConcepts: append([]string(nil), r.StruggledConcepts...),
	}
}

func toResultOutput(r domain.SessionResult) dto.SessionResult {
	return dto.SessionResult{
		TotalProblems:     r.TotalProblems,
		CorrectCount:      r.CorrectCount,
		ProblemsAttempted: r.ProblemsAttempted,
		TimeSpentMS:       r.TimeSpentMS,
		HintsUsed:         r.HintsUsed,
		Retries:           r.Retries,
		Score:             r.Score,
		Accuracy:          r.Accuracy,
		AverageResponseMS: r.AverageResponseMS,
		MasteredConcepts:  append([]string(nil), r.MasteredConcepts...),
		StruggledConcepts: append([]string(nil), r.StruggledConcepts...),
	}
}

func toAdaptiveOutput(s domain.AdaptiveState) dto.AdaptiveState {
	return dto.AdaptiveState{
		Offset:               s.Offset,
		SessionsRecorded:     s.SessionsRecorded,
		LastAdjustedSession:  s.LastAdjustedSession,
		LastEvaluatedSession: s.LastEvaluatedSession,
	}
}

func toOutput(p domain.PlayerPerformance) dto.PerformanceOutput {
	out := dto.PerformanceOutput{
		GameID:       p.GameID,
		PlayerID:     p.PlayerID,
		CurrentLevel: p.CurrentLevel,
		Sessions:     make([]dto.SessionOutput, 0, len(p.Sessions)),
		Adjustments:  make([]dto.Adjustment, 0, len(p.Adjustments)),
		Adaptive:     toAdaptiveOutput(p.Adaptive),
		UpdatedAt:    p.UpdatedAt,
		Stats: dto.Stats{
			TotalSessions:    p.Stats.TotalSessions,
			AverageAccuracy:  p.Stats.AverageAccuracy,
			AverageScore:     p.Stats.AverageScore,
			LearningVelocity: p.Stats.LearningVelocity,
			StrongAreas:      append([]string(nil), p.Stats.StrongAreas...),
			ImprovementAreas: append([]string(nil), p.Stats.ImprovementAreas...),
			ConsistencyScore: p.Stats.ConsistencyScore,
		},
	}
	for _, s := range p.Sessions {
		out.Sessions = append(out.Sessions, dto.SessionOutput{ID: s.ID, RecordedAt: s.RecordedAt, Parameters: s.Parameters, Result: toResultOutput(s.Result)})
	}
	for _, a := range p.Adjustments {
		out.Adjustments = append(out.Adjustments, dto.Adjustment{
			At:            a.At,
			Reason:        string(a.Reason),
			Delta:         a.Delta,
			SuccessRate:   a.SuccessRate,
			SessionNumber: a.SessionNumber,
			Note:          a.Note,
		})
	}
	return out
}
