package dto

import (
	"time"

	"gametune/internal/platform/gameparams"
)

type ApplyAdaptiveInput struct {
	Params      gameparams.GameParameters
	GameID      string
	PlayerID    string
	PlayerLevel int
}

type EvaluationOutput struct {
	GameID           string           `json:"game_id"`
	PlayerID         string           `json:"player_id"`
	Phase            string           `json:"phase"`
	Outcome          string           `json:"outcome"`
	Reason           string           `json:"reason,omitempty"`
	Delta            gameparams.Delta `json:"delta"`
	SuccessRate      float64          `json:"success_rate"`
	Offset           gameparams.Delta `json:"offset"`
	SessionsRecorded int              `json:"sessions_recorded"`
}

type ForceAdjustmentInput struct {
	GameID   string
	PlayerID string
	Patch    gameparams.Patch
	TTL      time.Duration
	Note     string
}

type OverrideOutput struct {
	GameID    string           `json:"game_id"`
	PlayerID  string           `json:"player_id"`
	Patch     gameparams.Patch `json:"patch"`
	Note      string           `json:"note,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

type FeedbackInput struct {
	GameID   string
	PlayerID string
	Feedback string
}

type GameOutput struct {
	ID                string                    `json:"id"`
	Name              string                    `json:"name"`
	Base              gameparams.GameParameters `json:"base"`
	Levels            []int                     `json:"levels"`
	SuccessRateWindow int                       `json:"success_rate_window"`
	MinSuccessRate    float64                   `json:"min_success_rate"`
	MaxSuccessRate    float64                   `json:"max_success_rate"`
	CooldownPeriod    int                       `json:"cooldown_period"`
}
