package dto

import (
	"time"

	diffdto "gametune/internal/modules/difficulty/dto"
	perfdto "gametune/internal/modules/performance/dto"
	"gametune/internal/platform/gameparams"
)

type ResolveInput struct {
	GameID      string `json:"game_id"`
	PlayerID    string `json:"player_id"`
	PlayerLevel int    `json:"player_level"`
}

type ParametersOutput struct {
	GameID       string                    `json:"game_id"`
	PlayerID     string                    `json:"player_id"`
	Params       gameparams.GameParameters `json:"params"`
	ExperimentID string                    `json:"experiment_id,omitempty"`
	VariantID    string                    `json:"variant_id,omitempty"`
	Layers       []string                  `json:"layers"`
}

type SubmitSessionInput struct {
	GameID   string                `json:"game_id"`
	PlayerID string                `json:"player_id"`
	Result   perfdto.SessionResult `json:"result"`
	// Params are the parameters the session was played with. When empty the
	// current resolution for level PlayerLevel is stored instead.
	Params      *gameparams.GameParameters `json:"params,omitempty"`
	PlayerLevel int                        `json:"player_level"`
}

type SubmitSessionOutput struct {
	SessionID          string                   `json:"session_id"`
	SessionsRecorded   int                      `json:"sessions_recorded"`
	Evaluation         diffdto.EvaluationOutput `json:"evaluation"`
	ExperimentID       string                   `json:"experiment_id,omitempty"`
	VariantID          string                   `json:"variant_id,omitempty"`
	FirstParticipation bool                     `json:"first_participation"`
}

type DebugInput struct {
	Enabled bool             `json:"enabled"`
	Patch   gameparams.Patch `json:"patch"`
}

type DebugOutput struct {
	Enabled bool             `json:"enabled"`
	Patch   gameparams.Patch `json:"patch"`
	SetAt   time.Time        `json:"set_at"`
}
