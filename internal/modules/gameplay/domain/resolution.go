package domain

import (
	"time"

	"gametune/internal/platform/gameparams"
)

// Layer names one overlay step of a resolution, in application order.
type Layer string

const (
	LayerBase     Layer = "base"
	LayerAdaptive Layer = "adaptive"
	LayerVariant  Layer = "variant"
	LayerDebug    Layer = "debug"
)

// DebugMode overlays Patch on every resolution while Enabled.
type DebugMode struct {
	Enabled bool             `json:"enabled"`
	Patch   gameparams.Patch `json:"patch"`
	SetAt   time.Time        `json:"set_at"`
}

// Active reports whether the debug layer changes anything.
func (d DebugMode) Active() bool {
	return d.Enabled && !d.Patch.IsZero()
}

// Assignment is the experiment arm a player lands in for a game.
type Assignment struct {
	ExperimentID string
	VariantID    string
	Overrides    gameparams.Patch
}

func (a Assignment) Found() bool {
	return a.ExperimentID != ""
}

type Resolution struct {
	Params     gameparams.GameParameters
	Assignment Assignment
	Layers     []Layer
}

// Overlay applies the experiment variant and the debug patch on top of the
// adapted parameters. The variant wins over adaptive changes and debug wins
// over everything.
func Overlay(adapted gameparams.GameParameters, assignment Assignment, debug DebugMode) Resolution {
	res := Resolution{Assignment: assignment, Layers: []Layer{LayerBase, LayerAdaptive}}
	b := gameparams.From(adapted)
	if assignment.Found() {
		b.Apply(assignment.Overrides)
		res.Layers = append(res.Layers, LayerVariant)
	}
	if debug.Active() {
		b.Apply(debug.Patch)
		res.Layers = append(res.Layers, LayerDebug)
	}
	res.Params = b.Build()
	return res
}
