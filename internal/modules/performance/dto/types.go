package dto

import (
	"time"

	"gametune/internal/platform/gameparams"
)

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

type RecordSessionInput struct {
	GameID     string
	PlayerID   string
	Parameters gameparams.GameParameters
	Result     SessionResult
}

type SessionOutput struct {
	ID         string                    `json:"id"`
	RecordedAt time.Time                 `json:"recorded_at"`
	Parameters gameparams.GameParameters `json:"parameters"`
	Result     SessionResult             `json:"result"`
}

type Adjustment struct {
	At            time.Time        `json:"at"`
	Reason        string           `json:"reason"`
	Delta         gameparams.Delta `json:"delta"`
	SuccessRate   float64          `json:"success_rate"`
	SessionNumber int              `json:"session_number"`
	Note          string           `json:"note,omitempty"`
}

type AdaptiveState struct {
	Offset               gameparams.Delta `json:"offset"`
	SessionsRecorded     int              `json:"sessions_recorded"`
	LastAdjustedSession  int              `json:"last_adjusted_session"`
	LastEvaluatedSession int              `json:"last_evaluated_session"`
}

type Stats struct {
	TotalSessions    int      `json:"total_sessions"`
	AverageAccuracy  float64  `json:"average_accuracy"`
	AverageScore     float64  `json:"average_score"`
	LearningVelocity float64  `json:"learning_velocity"`
	StrongAreas      []string `json:"strong_areas,omitempty"`
	ImprovementAreas []string `json:"improvement_areas,omitempty"`
	ConsistencyScore float64  `json:"consistency_score"`
}

type PerformanceOutput struct {
	GameID       string          `json:"game_id"`
	PlayerID     string          `json:"player_id"`
	CurrentLevel int             `json:"current_level"`
	Sessions     []SessionOutput `json:"sessions"`
	Stats        Stats           `json:"stats"`
	Adjustments  []Adjustment    `json:"adjustments"`
	Adaptive     AdaptiveState   `json:"adaptive"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AdaptiveUpdate is handed to UpdateAdaptive callbacks while the record is
// locked. Accuracies and SessionCount are read-only; State, CurrentLevel and
// Append are written back.
type AdaptiveUpdate struct {
	Accuracies   []float64
	SessionCount int
	State        AdaptiveState
	CurrentLevel int
	Append       []Adjustment
}

type PruneReport struct {
	Records            int `json:"records"`
	RecordsDeleted     int `json:"records_deleted"`
	SessionsRemoved    int `json:"sessions_removed"`
	AdjustmentsRemoved int `json:"adjustments_removed"`
}
