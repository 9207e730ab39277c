package cutting

import (
	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
)

// aggregateFactor scales the coarse aggregate size into a minimum clear
// spacing (4/3 per the usual detailing provision).
const aggregateFactor = 1.33

// RequiredClearSpacing returns the binding clear distance between
// longitudinal bars: the maximum of the configured minimum, the bar
// diameter multiple (when enabled) and 1.33x the aggregate size.
func RequiredClearSpacing(s config.Settings, barDia int) float64 {
	spacing := s.MinClearSpacing
	if s.UseDiaMultiple {
		if v := s.DiaSpacingMultiple * float64(barDia); v > spacing {
			spacing = v
		}
	}
	if v := aggregateFactor * s.AggregateSize; v > spacing {
		spacing = v
	}
	return spacing
}

// usableWidth returns the width available to a bar layer after covers
// and stirrup legs on both sides.
func usableWidth(s config.Settings, beamWidth float64) float64 {
	return beamWidth - 2*s.SideCover - 2*float64(s.StirrupDia)
}

// BarsFitWidth reports whether count bars of the given diameter fit in
// one layer across the beam width at the required clear spacing. This
// is the feasibility check that forces the scenario generator to round
// bar counts up (adding waste) or spill into a second layer.
func BarsFitWidth(s config.Settings, beamWidth float64, barDia, count int) bool {
	if count < 1 {
		return false
	}
	needed := float64(count)*float64(barDia) +
		float64(count-1)*RequiredClearSpacing(s, barDia)
	return needed <= usableWidth(s, beamWidth)
}

// MaxBarsPerLayer returns the largest bar count of the given diameter
// that fits in one layer. Returns at least 0.
func MaxBarsPerLayer(s config.Settings, beamWidth float64, barDia int) int {
	w := usableWidth(s, beamWidth)
	if w < float64(barDia) {
		return 0
	}
	sp := RequiredClearSpacing(s, barDia)
	// n*dia + (n-1)*sp <= w  =>  n <= (w + sp) / (dia + sp)
	n := int((w + sp) / (float64(barDia) + sp))
	if n < 0 {
		return 0
	}
	return n
}

// LayersFor returns how many layers are needed to place count bars of
// the given diameter, and whether placement is possible at all within
// the configured layer limit.
func LayersFor(s config.Settings, beamWidth float64, barDia, count int) (layers int, ok bool) {
	perLayer := MaxBarsPerLayer(s, beamWidth, barDia)
	if perLayer == 0 {
		return 0, false
	}
	layers = (count + perLayer - 1) / perLayer
	return layers, layers <= s.MaxLayers
}

// SpacingMargin returns the slack ratio of the provided clear spacing
// over the required one for a layer of count bars, clamped to [0, 1].
// 0 means the bars barely fit (or do not); 1 means twice the required
// spacing or more. Used by the constructability scorer.
func SpacingMargin(s config.Settings, beamWidth float64, barDia, count int) float64 {
	if count < 2 {
		return 1
	}
	w := usableWidth(s, beamWidth)
	provided := (w - float64(count)*float64(barDia)) / float64(count-1)
	required := RequiredClearSpacing(s, barDia)
	if required <= 0 {
		return 1
	}
	margin := (provided - required) / required
	if margin < 0 {
		return 0
	}
	if margin > 1 {
		return 1
	}
	return margin
}
