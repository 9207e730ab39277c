package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

func scoringGroup() *model.BeamGroup {
	return &model.BeamGroup{
		GroupID: "g1",
		Spans: []model.Span{{
			ID:    "a",
			Start: model.Point2D{X: 0},
			End:   model.Point2D{X: 4500},
			Width: 300,
		}},
	}
}

// TestScore_BadWeights tests that an invalid weight vector aborts
// scoring instead of producing a misleading total.
func TestScore_BadWeights(t *testing.T) {
	s := config.Default()
	s.Weights = config.Weights{Splices: 0.5, Diversity: 0.5, Spacing: 0.5, Layering: 0.5}

	_, err := Score(&model.ContinuousBeamSolution{}, scoringGroup(), s)
	require.ErrorContains(t, err, "scoring aborted")
	assert.ErrorContains(t, err, "must sum to 1.0")
}

// TestScore_NilSolution tests the nil guard.
func TestScore_NilSolution(t *testing.T) {
	_, err := Score(nil, scoringGroup(), config.Default())
	assert.ErrorContains(t, err, "nil solution")
}

// TestScore_IdealSolution tests that an unspliced single-diameter
// single-layer layout with generous spacing scores 100.
func TestScore_IdealSolution(t *testing.T) {
	sol := &model.ContinuousBeamSolution{
		DiaTop: 20, CountTop: 2,
		DiaBot: 20, CountBot: 2,
		SpliceCount: 0,
		LayerCount:  1,
	}
	b, err := Score(sol, scoringGroup(), config.Default())
	require.NoError(t, err)

	assert.Equal(t, 100.0, b.Splices)
	assert.Equal(t, 100.0, b.Diversity)
	assert.Equal(t, 100.0, b.Spacing)
	assert.Equal(t, 100.0, b.Layering)
	assert.InDelta(t, 100.0, b.Total, 1e-9)
}

// TestScore_SpliceSubscore tests the per-bar splice falloff.
func TestScore_SpliceSubscore(t *testing.T) {
	sol := &model.ContinuousBeamSolution{
		DiaTop: 20, CountTop: 4,
		DiaBot: 20, CountBot: 4,
		LayerCount: 1,
	}
	s := config.Default()

	sol.SpliceCount = 8 // one splice per bar: halfway to the worst case
	b, err := Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, b.Splices, 1e-9)

	sol.SpliceCount = 16 // two per bar maps to zero
	b, err = Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Splices)

	sol.SpliceCount = 100 // beyond worst case stays clamped
	b, err = Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Splices)
}

// TestScore_DiversitySubscore tests the per-diameter step cost.
func TestScore_DiversitySubscore(t *testing.T) {
	s := config.Default()
	sol := &model.ContinuousBeamSolution{
		DiaTop: 20, CountTop: 2,
		DiaBot: 16, CountBot: 2,
		LayerCount: 1,
	}
	b, err := Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.Equal(t, 75.0, b.Diversity, "two diameters cost one step")

	sol.Addons = []model.AddonBar{{Diameter: 25, Count: 1}}
	b, err = Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.Equal(t, 50.0, b.Diversity, "addon diameter adds a third")
}

// TestScore_LayeringSubscore tests the extra-layer cost.
func TestScore_LayeringSubscore(t *testing.T) {
	s := config.Default()
	sol := &model.ContinuousBeamSolution{
		DiaTop: 20, CountTop: 2,
		DiaBot: 20, CountBot: 2,
		LayerCount: 2,
	}
	b, err := Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.Equal(t, 60.0, b.Layering)
}

// TestScore_WeightedTotal tests that the total is the weighted sum of
// the subscores.
func TestScore_WeightedTotal(t *testing.T) {
	s := config.Default()
	s.Weights = config.Weights{Splices: 1, Diversity: 0, Spacing: 0, Layering: 0}

	sol := &model.ContinuousBeamSolution{
		DiaTop: 20, CountTop: 4,
		DiaBot: 20, CountBot: 4,
		SpliceCount: 8,
		LayerCount:  2, // ignored at zero weight
	}
	b, err := Score(sol, scoringGroup(), s)
	require.NoError(t, err)
	assert.InDelta(t, b.Splices, b.Total, 1e-9)
}
