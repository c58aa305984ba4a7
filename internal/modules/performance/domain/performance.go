package domain

import (
	"strings"
	"time"

	"gametune/internal/platform/gameparams"
)

// MaxSessions is how many sessions a record retains; older ones are evicted.
const MaxSessions = 20

type Reason string

const (
	ReasonLowSuccessRate  Reason = "low-success-rate"
	ReasonHighSuccessRate Reason = "high-success-rate"
	ReasonPlayerFeedback  Reason = "player-feedback"
	ReasonLevelUp         Reason = "level-up"
	ReasonManualOverride  Reason = "manual-override"
	ReasonExperiment      Reason = "experiment"
)

type Key struct {
	GameID   string
	PlayerID string
}

func (k Key) String() string {
	return k.GameID + "/" + k.PlayerID
}

type SessionResult struct {
	TotalProblems     int      `json:"total_problems"`
	CorrectCount      int      `json:"correct_count"`
	ProblemsAttempted int      `json:"problems_attempted"`
	TimeSpentMS       int64    `json:"time_spent_ms"`
	HintsUsed         int      `json:"hints_used"`
	Retries           int      `json:"retries"`
	Score             float64  `json:"score"`
	Accuracy          float64  `json:"accuracy"`
	AverageResponseMS float64  `json:"average_response_ms"`
	MasteredConcepts  []string `json:"mastered_concepts,omitempty"`
	StruggledConcepts []string `json:"struggled_concepts,omitempty"`
}

type GameSession struct {
	ID         string                    `json:"id"`
	RecordedAt time.Time                 `json:"recorded_at"`
	Parameters gameparams.GameParameters `json:"parameters"`
	Result     SessionResult             `json:"result"`
}

type AdaptiveAdjustment struct {
	At            time.Time        `json:"at"`
	Reason        Reason           `json:"reason"`
	Delta         gameparams.Delta `json:"delta"`
	SuccessRate   float64          `json:"success_rate"`
	SessionNumber int              `json:"session_number"`
	Note          string           `json:"note,omitempty"`
}

// AdaptiveState is the bookkeeping the difficulty controller keeps per key.
// SessionsRecorded counts every session ever recorded, not only retained ones.
type AdaptiveState struct {
	Offset               gameparams.Delta `json:"offset"`
	SessionsRecorded     int              `json:"sessions_recorded"`
	LastAdjustedSession  int              `json:"last_adjusted_session"`
	LastEvaluatedSession int              `json:"last_evaluated_session"`
}

type PlayerPerformance struct {
	GameID       string               `json:"game_id"`
	PlayerID     string               `json:"player_id"`
	CurrentLevel int                  `json:"current_level"`
	Sessions     []GameSession        `json:"sessions"`
	Stats        PerformanceStats     `json:"stats"`
	Adjustments  []AdaptiveAdjustment `json:"adjustments"`
	Adaptive     AdaptiveState        `json:"adaptive"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func New(key Key) PlayerPerformance {
	return PlayerPerformance{GameID: key.GameID, PlayerID: key.PlayerID}
}

func (p PlayerPerformance) Key() Key {
	return Key{GameID: p.GameID, PlayerID: p.PlayerID}
}

// AddSession appends session, evicts beyond MaxSessions and refreshes stats.
func (p *PlayerPerformance) AddSession(session GameSession) {
	p.Sessions = append(p.Sessions, session)
	if over := len(p.Sessions) - MaxSessions; over > 0 {
		p.Sessions = append([]GameSession(nil), p.Sessions[over:]...)
	}
	p.Adaptive.SessionsRecorded++
	p.Stats = ComputeStats(p.Sessions)
	p.UpdatedAt = session.RecordedAt
}

// Accuracies returns the accuracy of the most recent window sessions, oldest
// first. A window <= 0 returns every retained session.
func (p PlayerPerformance) Accuracies(window int) []float64 {
	sessions := p.Sessions
	if window > 0 && len(sessions) > window {
		sessions = sessions[len(sessions)-window:]
	}
	out := make([]float64, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Result.Accuracy)
	}
	return out
}

// Prune drops sessions and adjustments recorded before cutoff.
func (p *PlayerPerformance) Prune(cutoff time.Time) (sessions, adjustments int) {
	keptSessions := p.Sessions[:0:0]
	for _, s := range p.Sessions {
		if s.RecordedAt.Before(cutoff) {
			sessions++
			continue
		}
		keptSessions = append(keptSessions, s)
	}
	keptAdjustments := p.Adjustments[:0:0]
	for _, a := range p.Adjustments {
		if a.At.Before(cutoff) {
			adjustments++
			continue
		}
		keptAdjustments = append(keptAdjustments, a)
	}
	p.Sessions = keptSessions
	p.Adjustments = keptAdjustments
	if sessions > 0 {
		p.Stats = ComputeStats(p.Sessions)
	}
	return sessions, adjustments
}

// Clone returns a deep copy, so stores never share slices with callers.
func (p PlayerPerformance) Clone() PlayerPerformance {
	out := p
	out.Sessions = make([]GameSession, len(p.Sessions))
	for i, s := range p.Sessions {
		s.Result.MasteredConcepts = append([]string(nil), s.Result.MasteredConcepts...)
		s.Result.StruggledConcepts = append([]string(nil), s.Result.StruggledConcepts...)
		out.Sessions[i] = s
	}
	out.Adjustments = append([]AdaptiveAdjustment(nil), p.Adjustments...)
	out.Stats.StrongAreas = append([]string(nil), p.Stats.StrongAreas...)
	out.Stats.ImprovementAreas = append([]string(nil), p.Stats.ImprovementAreas...)
	return out
}

func NormalizeID(v string) string {
	return strings.TrimSpace(v)
}
