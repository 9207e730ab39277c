// Package scoring turns a computed solution into a single weighted
// constructability score.
//
// Each subscore is normalized to [0,100]; the total is the weighted sum
// with externally supplied weights. The scorer is a pure aggregation:
// it never mutates the solution it reads.
package scoring

import (
	"fmt"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/cutting"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// diversityStep is the subscore cost of each distinct diameter beyond
// the first.
const diversityStep = 25.0

// layerStep is the subscore cost of each reinforcement layer beyond the
// first.
const layerStep = 40.0

// worstSplicesPerBar is the per-bar splice count that maps to a zero
// splice subscore.
const worstSplicesPerBar = 2.0

// Score computes the constructability breakdown for a solution against
// its group geometry. The weights are validated before anything is
// scored; a bad weight vector is a configuration error, not a losing
// candidate.
func Score(sol *model.ContinuousBeamSolution, group *model.BeamGroup, s config.Settings) (model.ScoreBreakdown, error) {
	if err := s.Weights.Validate(); err != nil {
		return model.ScoreBreakdown{}, fmt.Errorf("scoring aborted: %w", err)
	}
	if sol == nil {
		return model.ScoreBreakdown{}, fmt.Errorf("scoring aborted: nil solution")
	}

	b := model.ScoreBreakdown{
		Splices:   spliceSubscore(sol),
		Diversity: diversitySubscore(sol),
		Spacing:   spacingSubscore(sol, group, s),
		Layering:  layeringSubscore(sol),
	}
	w := s.Weights
	b.Total = w.Splices*b.Splices + w.Diversity*b.Diversity +
		w.Spacing*b.Spacing + w.Layering*b.Layering
	return b, nil
}

// spliceSubscore: 100 for an unspliced layout, falling linearly to 0 at
// worstSplicesPerBar splices per backbone bar.
func spliceSubscore(sol *model.ContinuousBeamSolution) float64 {
	bars := sol.CountTop + sol.CountBot
	if bars <= 0 {
		return 0
	}
	perBar := float64(sol.SpliceCount) / float64(bars)
	return clamp100(100 * (1 - perBar/worstSplicesPerBar))
}

// diversitySubscore: every distinct diameter beyond the first costs a
// fixed step. A single-diameter cage scores 100.
func diversitySubscore(sol *model.ContinuousBeamSolution) float64 {
	d := sol.DistinctDiameters()
	if d < 1 {
		d = 1
	}
	return clamp100(100 - diversityStep*float64(d-1))
}

// spacingSubscore averages the top and bottom layer spacing margins
// over the anchor span width.
func spacingSubscore(sol *model.ContinuousBeamSolution, group *model.BeamGroup, s config.Settings) float64 {
	anchor, ok := group.Anchor()
	if !ok {
		return 0
	}
	width := anchor.Width
	if width <= 0 {
		width = s.DefaultWidth
	}
	top := cutting.SpacingMargin(s, width, sol.DiaTop, sol.CountTop)
	bot := cutting.SpacingMargin(s, width, sol.DiaBot, sol.CountBot)
	return clamp100(100 * (top + bot) / 2)
}

// layeringSubscore: single-layer cages score 100; each extra layer
// costs layerStep.
func layeringSubscore(sol *model.ContinuousBeamSolution) float64 {
	layers := sol.LayerCount
	if layers < 1 {
		layers = 1
	}
	return clamp100(100 - layerStep*float64(layers-1))
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
