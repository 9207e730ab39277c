// Package cutting computes backbone bar segmentation against the stock
// bar length and counts the splices a layout needs.
//
// Cuts are kept out of the high-moment regions: near interior supports
// for top bars, in the middle third of each span for bottom bars. A
// splice is counted only when a segment boundary falls strictly inside
// the beam group, never at a free end or outermost support.
package cutting

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// positionEps is the tolerance in mm when comparing positions along the
// group.
const positionEps = 1.0

// minSegmentFraction bounds how short a segment may become when a cut
// is pulled back out of a forbidden zone.
const minSegmentFraction = 0.2

// Result is the outcome of one ProcessComplete run for one bar layer.
type Result struct {
	Segments    []model.BarSegment
	SpliceCount int
	LapLength   float64
}

// lapFactor returns the lap splice length in bar diameters for the
// given material grades. Steel grades follow TCVN naming (CB300-V,
// CB400-V, CB500-V); unknown grades fall back to the CB400 factor.
// Low-grade concrete (below B20) adds 8 diameters.
func lapFactor(concreteGrade, steelGrade string) float64 {
	factor := 40.0
	switch {
	case strings.HasPrefix(steelGrade, "CB300"):
		factor = 30
	case strings.HasPrefix(steelGrade, "CB400"):
		factor = 40
	case strings.HasPrefix(steelGrade, "CB500"):
		factor = 45
	}
	if g, ok := strings.CutPrefix(concreteGrade, "B"); ok {
		if n, err := strconv.Atoi(g); err == nil && n < 20 {
			factor += 8
		}
	}
	return factor
}

// LapLength returns the required lap splice length in mm.
func LapLength(barDia int, concreteGrade, steelGrade string) float64 {
	return lapFactor(concreteGrade, steelGrade) * float64(barDia)
}

// zone is a forbidden interval [lo, hi] for cut positions.
type zone struct {
	lo, hi float64
}

func (z zone) contains(p float64) bool {
	return p > z.lo+positionEps && p < z.hi-positionEps
}

// forbiddenZones builds the no-cut intervals along the cumulative group
// length. supportPositions has one entry per support, outermost ends
// included.
func forbiddenZones(spans []model.Span, isTop bool, groupType model.GroupType) []zone {
	offset := 0.25
	if groupType == model.GroupGirder {
		offset = 0.30
	}

	// Cumulative support positions.
	positions := make([]float64, 0, len(spans)+1)
	pos := 0.0
	positions = append(positions, pos)
	for _, s := range spans {
		pos += s.Length()
		positions = append(positions, pos)
	}

	var zones []zone
	if isTop {
		// Top bars: hogging moment peaks over interior supports. Keep
		// cuts at least a fraction of the shorter adjacent span away.
		for i := 1; i < len(positions)-1; i++ {
			left := spans[i-1].Length()
			right := spans[i].Length()
			reach := offset * minf(left, right)
			zones = append(zones, zone{positions[i] - reach, positions[i] + reach})
		}
	} else {
		// Bottom bars: sagging moment peaks at midspan. Forbid the
		// middle third of each span.
		for i, s := range spans {
			l := s.Length()
			zones = append(zones, zone{positions[i] + l/3, positions[i] + 2*l/3})
		}
	}
	return zones
}

// ProcessComplete computes the bar segmentation for one layer of
// backbone bars over a whole beam group.
//
// totalLength is the cumulative group length; spans supply the interior
// support positions and per-span lengths. The returned splice count is
// per layer: interior boundaries multiplied by barsPerLayer.
func ProcessComplete(
	totalLength float64,
	spans []model.Span,
	isTop bool,
	groupType model.GroupType,
	startSupport, endSupport model.SupportType,
	barDia, barsPerLayer int,
	concreteGrade, steelGrade string,
	s config.Settings,
) (Result, error) {
	if totalLength <= 0 {
		return Result{}, fmt.Errorf("total length must be positive, got %.1f", totalLength)
	}
	if barDia <= 0 || barsPerLayer < 1 {
		return Result{}, fmt.Errorf("invalid bar layer: dia=%d count=%d", barDia, barsPerLayer)
	}
	stock := s.StockBarLength
	lap := LapLength(barDia, concreteGrade, steelGrade)
	if lap >= stock {
		return Result{}, fmt.Errorf("lap length %.0f exceeds stock length %.0f", lap, stock)
	}

	zones := forbiddenZones(spans, isTop, groupType)

	var segments []model.BarSegment
	boundaries := 0
	pos := 0.0
	for {
		if pos+stock >= totalLength-positionEps {
			segments = append(segments, model.BarSegment{
				Start: pos, End: totalLength, IsTop: isTop,
			})
			break
		}

		cut := pos + stock
		adjusted := adjustCut(cut, pos, stock, zones)
		segments = append(segments, model.BarSegment{
			Start: pos, End: adjusted, IsTop: isTop,
		})
		boundaries++

		// The next segment overlaps the cut by the lap length.
		next := adjusted - lap
		if next <= pos {
			// The pull-back stalled against a zone wider than a usable
			// stock length. An in-zone splice beats no bar at all.
			adjusted = cut
			segments[len(segments)-1].End = cut
			next = cut - lap
		}
		if next <= pos {
			return Result{}, fmt.Errorf("no forward progress at %.0f; stock %.0f too short for lap %.0f",
				pos, stock, lap)
		}
		pos = next
	}

	tagSegments(segments, spans)

	return Result{
		Segments:    segments,
		SpliceCount: boundaries * barsPerLayer,
		LapLength:   lap,
	}, nil
}

// adjustCut moves a proposed cut backward out of any forbidden zone it
// falls in. If pulling back would leave the segment shorter than the
// minimum practical length, the original cut stands: an awkward splice
// position is a scoring concern, not a hard failure.
func adjustCut(cut, segStart, stock float64, zones []zone) float64 {
	for _, z := range zones {
		if z.contains(cut) {
			pulled := z.lo
			if pulled-segStart >= minSegmentFraction*stock {
				return pulled
			}
			return cut
		}
	}
	return cut
}

// tagSegments assigns each segment the ID of the span it lies entirely
// within. Segments that straddle a support keep an empty SpanID.
func tagSegments(segments []model.BarSegment, spans []model.Span) {
	pos := 0.0
	type bounds struct {
		id     string
		lo, hi float64
	}
	spanBounds := make([]bounds, len(spans))
	for i, s := range spans {
		spanBounds[i] = bounds{s.ID, pos, pos + s.Length()}
		pos += s.Length()
	}
	for i := range segments {
		for _, b := range spanBounds {
			if segments[i].Start >= b.lo-positionEps && segments[i].End <= b.hi+positionEps {
				segments[i].SpanID = b.id
				break
			}
		}
	}
}

// SplicesFromSegments recounts splices from persisted segment data.
// It must agree with the fresh computation on the shared invariants:
// the count is never negative and boundaries occur only strictly inside
// the group length.
func SplicesFromSegments(segments []model.BarSegment, totalLength float64, barsPerLayer int) int {
	if barsPerLayer < 1 || len(segments) == 0 {
		return 0
	}
	boundaries := 0
	for _, seg := range segments {
		if seg.End > positionEps && seg.End < totalLength-positionEps {
			boundaries++
		}
	}
	return boundaries * barsPerLayer
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
