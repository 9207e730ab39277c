package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/design"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
	"github.com/thanhtdvncc/dts-beam-tool/internal/testutil"
)

func ruleContext(top, bot int) *design.SolutionContext {
	c := design.NewContext(testutil.Chain("g1", 2, 4500), config.Default())
	design.SanitizeGeometry(c)
	c.DiaTop, c.CountTop = 20, top
	c.DiaBot, c.CountBot = 20, bot
	return c
}

// TestDefault tests the registered set and its priority ordering.
func TestDefault(t *testing.T) {
	set := Default()
	require.Len(t, set, 6)
	for i := 1; i < len(set); i++ {
		assert.Less(t, set[i-1].Priority(), set[i].Priority(),
			"%s before %s", set[i-1].Name(), set[i].Name())
	}
}

// TestMinBarCount tests the two-bars-per-face floor.
func TestMinBarCount(t *testing.T) {
	r := MinBarCount{}

	res := r.Evaluate(ruleContext(2, 2))
	assert.Equal(t, model.SeverityPass, res.Severity)

	res = r.Evaluate(ruleContext(1, 4))
	assert.Equal(t, model.SeverityCritical, res.Severity)
	assert.Contains(t, res.Message, "below minimum")
}

// TestClearSpacing tests physical-fit rejection.
func TestClearSpacing(t *testing.T) {
	r := ClearSpacing{}

	res := r.Evaluate(ruleContext(4, 4))
	assert.Equal(t, model.SeverityPass, res.Severity)

	// Nine T20 bars need three layers in a 300 mm section: over the limit.
	res = r.Evaluate(ruleContext(9, 4))
	assert.Equal(t, model.SeverityCritical, res.Severity)
	assert.Contains(t, res.Message, "do not fit")
}

// TestCapacityAdequacy tests the provided-vs-required check including
// addons.
func TestCapacityAdequacy(t *testing.T) {
	r := CapacityAdequacy{}

	// Fixture demand 600/900: 3+3 T20 covers both faces.
	res := r.Evaluate(ruleContext(3, 3))
	assert.Equal(t, model.SeverityPass, res.Severity)

	// Force a shortfall with a tiny diameter and no addons.
	c := ruleContext(2, 2)
	c.DiaTop, c.DiaBot = 10, 10
	res = r.Evaluate(c)
	assert.Equal(t, model.SeverityCritical, res.Severity)

	// Addons make up the same shortfall.
	c.Solution = &model.ContinuousBeamSolution{
		Addons: []model.AddonBar{
			{Face: model.FaceTop, Diameter: 20, Count: 3},
			{Face: model.FaceBottom, Diameter: 20, Count: 3},
		},
	}
	res = r.Evaluate(c)
	assert.Equal(t, model.SeverityPass, res.Severity)
}

// TestMaxLayerCount tests the warn-then-reject layering ladder.
func TestMaxLayerCount(t *testing.T) {
	r := MaxLayerCount{}

	c := ruleContext(4, 4)
	c.Solution = &model.ContinuousBeamSolution{LayerCount: 1}
	assert.Equal(t, model.SeverityPass, r.Evaluate(c).Severity)

	c.Solution.LayerCount = 2
	res := r.Evaluate(c)
	assert.Equal(t, model.SeverityWarning, res.Severity)
	assert.Equal(t, 10.0, res.Penalty)

	c.Solution.LayerCount = 3
	assert.Equal(t, model.SeverityCritical, r.Evaluate(c).Severity)
}

// TestVerticalAlignment tests parity and count-difference penalties.
func TestVerticalAlignment(t *testing.T) {
	r := VerticalAlignment{}

	tests := []struct {
		name        string
		top, bot    int
		minPenalty  float64
		wantPass    bool
		wantMessage string
	}{
		{"aligned even", 4, 4, 0, true, ""},
		{"aligned odd pair", 3, 3, 0, true, ""},
		{"parity mismatch", 3, 4, 25, false, "differ in parity"},
		{"large difference", 2, 6, 10, false, "exceeds 2"},
		{"mismatch and difference", 2, 7, 25 + 15, false, "differ in parity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Evaluate(ruleContext(tt.top, tt.bot))
			if tt.wantPass {
				assert.Equal(t, model.SeverityPass, res.Severity)
				assert.Zero(t, res.Penalty)
				return
			}
			assert.Equal(t, model.SeverityWarning, res.Severity)
			assert.GreaterOrEqual(t, res.Penalty, tt.minPenalty)
			assert.Contains(t, res.Message, tt.wantMessage)
		})
	}
}

// TestDiameterTransition tests the addon diameter drift warning.
func TestDiameterTransition(t *testing.T) {
	r := DiameterTransition{}

	c := ruleContext(4, 4) // backbone T20, allowed 16,18,20,22,25,28,32
	c.Solution = &model.ContinuousBeamSolution{
		Addons: []model.AddonBar{{Face: model.FaceTop, Diameter: 25, Count: 1}},
	}
	assert.Equal(t, model.SeverityPass, r.Evaluate(c).Severity,
		"two steps up is acceptable")

	c.Solution.Addons[0].Diameter = 28
	res := r.Evaluate(c)
	assert.Equal(t, model.SeverityWarning, res.Severity)
	assert.Equal(t, 8.0, res.Penalty)
	assert.Contains(t, res.Message, "more than two steps")
}
