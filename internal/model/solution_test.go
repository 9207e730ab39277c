package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSolution_ProvidedArea tests face area from backbone parameters.
func TestSolution_ProvidedArea(t *testing.T) {
	sol := &ContinuousBeamSolution{DiaTop: 20, CountTop: 4, DiaBot: 16, CountBot: 3}
	assert.InDelta(t, 4*BarArea(20), sol.ProvidedArea(FaceTop), 1e-9)
	assert.InDelta(t, 3*BarArea(16), sol.ProvidedArea(FaceBottom), 1e-9)
}

// TestSolution_DistinctDiameters tests the diameter palette count.
func TestSolution_DistinctDiameters(t *testing.T) {
	sol := &ContinuousBeamSolution{DiaTop: 20, DiaBot: 20}
	assert.Equal(t, 1, sol.DistinctDiameters(), "same diameter both faces")

	sol.DiaBot = 16
	assert.Equal(t, 2, sol.DistinctDiameters())

	sol.Addons = []AddonBar{{Diameter: 25}, {Diameter: 16}}
	assert.Equal(t, 3, sol.DistinctDiameters(), "addon 16 already counted")
}

// TestSolution_SameScenario tests the backbone-parameter identity used
// for re-attaching locked selections.
func TestSolution_SameScenario(t *testing.T) {
	a := &ContinuousBeamSolution{DiaTop: 20, CountTop: 4, DiaBot: 16, CountBot: 4}
	b := &ContinuousBeamSolution{DiaTop: 20, CountTop: 4, DiaBot: 16, CountBot: 4,
		SpliceCount: 7, Locked: true}
	assert.True(t, a.SameScenario(b), "derived fields do not participate")

	c := &ContinuousBeamSolution{DiaTop: 20, CountTop: 5, DiaBot: 16, CountBot: 4}
	assert.False(t, a.SameScenario(c))
	assert.False(t, a.SameScenario(nil))
}

// TestSolution_TotalPenalty tests penalty accumulation over results.
func TestSolution_TotalPenalty(t *testing.T) {
	sol := &ContinuousBeamSolution{}
	assert.Equal(t, 0.0, sol.TotalPenalty())

	sol.Results = []ValidationResult{
		Pass("min-bar-count"),
		{Rule: "vertical-alignment", Severity: SeverityWarning, Penalty: 25},
		{Rule: "max-layer-count", Severity: SeverityWarning, Penalty: 10},
	}
	assert.Equal(t, 35.0, sol.TotalPenalty())
}

// TestBarSegment_Length tests segment extent arithmetic.
func TestBarSegment_Length(t *testing.T) {
	seg := BarSegment{Start: 1200, End: 9400}
	assert.Equal(t, 8200.0, seg.Length())
}
