// Package testutil provides shared fixtures for the design packages:
// span and group builders with sensible defaults, and a throwaway
// store opener.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
	"github.com/thanhtdvncc/dts-beam-tool/internal/store"
)

// Span builds a horizontal span from x0 to x1 at y=0 with typical
// section geometry (300x600, B20 concrete, CB400-V steel) and a flat
// demand profile. Tests override fields on the result as needed.
func Span(id string, x0, x1 float64) model.Span {
	return model.Span{
		ID:            id,
		Start:         model.Point2D{X: x0, Y: 0},
		End:           model.Point2D{X: x1, Y: 0},
		Width:         300,
		Depth:         600,
		SupportStart:  model.SupportColumn,
		SupportEnd:    model.SupportColumn,
		ConcreteGrade: "B20",
		SteelGrade:    "CB400-V",
		Demand:        Demand(600, 900),
	}
}

// Demand builds a uniform analysis result: topArea everywhere on top,
// botArea everywhere on bottom, no torsion or shear demand.
func Demand(topArea, botArea float64) *model.SteelDemand {
	zd := model.ZoneDemand{TopArea: topArea, BotArea: botArea}
	return &model.SteelDemand{Start: zd, Mid: zd, End: zd}
}

// Group builds an ordered group from consecutive spans with a fixed
// identifier. Spans must already be ordered left to right.
func Group(id string, spans ...model.Span) *model.BeamGroup {
	return &model.BeamGroup{
		GroupID: id,
		Type:    model.GroupBeam,
		Spans:   spans,
	}
}

// Chain builds n consecutive spans of the given length starting at
// x=0, with IDs "S1".."Sn", and wraps them in a group.
func Chain(groupID string, n int, length float64) *model.BeamGroup {
	spans := make([]model.Span, n)
	for i := range spans {
		x0 := float64(i) * length
		spans[i] = Span(spanID(i), x0, x0+length)
	}
	return Group(groupID, spans...)
}

func spanID(i int) string {
	return fmt.Sprintf("S%d", i+1)
}

// OpenStore opens a fresh sqlite store in a test temp directory and
// closes it when the test ends.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
