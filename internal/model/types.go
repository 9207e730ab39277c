package model

import (
	"fmt"
	"math"
)

// Point2D is a drawing-space coordinate in millimetres.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SupportType classifies what a span end bears on. The support type at
// each end drives splice placement (splices are pushed away from the
// high-moment region next to a rigid support) and anchorage lengths.
type SupportType int

const (
	SupportFreeEnd SupportType = iota
	SupportColumn
	SupportWall
	SupportBeam
)

// String implements fmt.Stringer.
func (s SupportType) String() string {
	switch s {
	case SupportFreeEnd:
		return "free-end"
	case SupportColumn:
		return "column"
	case SupportWall:
		return "wall"
	case SupportBeam:
		return "beam"
	default:
		return fmt.Sprintf("support(%d)", int(s))
	}
}

// IsRigid reports whether the support can develop a hogging moment.
// Free ends and supporting beams cannot; columns and walls can.
func (s SupportType) IsRigid() bool {
	return s == SupportColumn || s == SupportWall
}

// GroupType distinguishes primary girders from secondary beams.
// Girders get stricter stirrup spacing in the reinforcement profile.
type GroupType int

const (
	GroupBeam GroupType = iota
	GroupGirder
)

func (g GroupType) String() string {
	if g == GroupGirder {
		return "girder"
	}
	return "beam"
}

// Zone identifies a position band along one span.
type Zone int

const (
	ZoneStart Zone = iota
	ZoneMid
	ZoneEnd
)

func (z Zone) String() string {
	switch z {
	case ZoneStart:
		return "start"
	case ZoneMid:
		return "mid"
	default:
		return "end"
	}
}

// Face identifies the top or bottom reinforcement layer.
type Face int

const (
	FaceTop Face = iota
	FaceBottom
)

func (f Face) String() string {
	if f == FaceTop {
		return "top"
	}
	return "bottom"
}

// ZoneDemand is the required steel area (mm²) for one zone of a span,
// as supplied by the external analysis engine.
type ZoneDemand struct {
	TopArea float64 `json:"top_area"`
	BotArea float64 `json:"bot_area"`
}

// SteelDemand is the full analysis result for one span. The core never
// computes these values; they arrive as an opaque, already-solved input.
type SteelDemand struct {
	Start ZoneDemand `json:"start"`
	Mid   ZoneDemand `json:"mid"`
	End   ZoneDemand `json:"end"`

	// TorsionArea is the longitudinal area demanded by torsion, to be
	// distributed between faces by the configured factors.
	TorsionArea float64 `json:"torsion_area"`
	// ShearArea is the transverse (stirrup) area demand per metre.
	ShearArea float64 `json:"shear_area"`

	SectionWidth float64 `json:"section_width"`
	SectionDepth float64 `json:"section_depth"`
}

// Zone returns the demand for the given zone.
func (d SteelDemand) Zone(z Zone) ZoneDemand {
	switch z {
	case ZoneStart:
		return d.Start
	case ZoneEnd:
		return d.End
	default:
		return d.Mid
	}
}

// MaxArea returns the governing required area for a face across all zones.
func (d SteelDemand) MaxArea(f Face) float64 {
	pick := func(zd ZoneDemand) float64 {
		if f == FaceTop {
			return zd.TopArea
		}
		return zd.BotArea
	}
	m := pick(d.Start)
	if v := pick(d.Mid); v > m {
		m = v
	}
	if v := pick(d.End); v > m {
		m = v
	}
	return m
}

// Span is one physical beam segment between two supports.
//
// INVARIANT: a Span is immutable during one design pass. Geometry and
// demand come from external collaborators (drawing store, analysis
// engine) and are never written back by the core.
type Span struct {
	ID           string       `json:"id"`
	Start        Point2D      `json:"start"`
	End          Point2D      `json:"end"`
	Width        float64      `json:"width"`
	Depth        float64      `json:"depth"`
	SupportStart SupportType  `json:"support_start"`
	SupportEnd   SupportType  `json:"support_end"`
	Demand       *SteelDemand `json:"demand,omitempty"`

	ConcreteGrade string `json:"concrete_grade"`
	SteelGrade    string `json:"steel_grade"`
}

// Length returns the span length in mm.
func (s Span) Length() float64 {
	dx := s.End.X - s.Start.X
	dy := s.End.Y - s.Start.Y
	return math.Hypot(dx, dy)
}

// IsXPrimary reports whether the span runs mainly along the X axis.
// Collinearity grouping compares spans on their primary axis only.
func (s Span) IsXPrimary() bool {
	return math.Abs(s.End.X-s.Start.X) >= math.Abs(s.End.Y-s.Start.Y)
}

// PrimaryCoord returns the coordinate used for left-to-right ordering:
// the minimum of the two endpoints on the primary axis.
func (s Span) PrimaryCoord() float64 {
	if s.IsXPrimary() {
		return math.Min(s.Start.X, s.End.X)
	}
	return math.Min(s.Start.Y, s.End.Y)
}

// OffAxisCoord returns the midpoint coordinate on the secondary axis,
// used for the collinearity check.
func (s Span) OffAxisCoord() float64 {
	if s.IsXPrimary() {
		return (s.Start.Y + s.End.Y) / 2
	}
	return (s.Start.X + s.End.X) / 2
}

// BeamGroup is an ordered chain of spans sharing one structural line.
//
// INVARIANTS:
//   - Spans are ordered by primary coordinate with no duplicate IDs.
//   - Spans[0] is the anchor (mother) span; the rest are its children.
//   - TotalLength() equals the sum of member span lengths.
type BeamGroup struct {
	GroupID  string                  `json:"group_id"`
	Type     GroupType               `json:"type"`
	Spans    []Span                  `json:"spans"`
	Selected *ContinuousBeamSolution `json:"selected,omitempty"`
}

// Anchor returns the mother span. ok is false for an empty group.
func (g *BeamGroup) Anchor() (Span, bool) {
	if len(g.Spans) == 0 {
		return Span{}, false
	}
	return g.Spans[0], true
}

// TotalLength returns the summed length of all member spans in mm.
func (g *BeamGroup) TotalLength() float64 {
	var total float64
	for _, s := range g.Spans {
		total += s.Length()
	}
	return total
}

// MemberIDs returns the span IDs in group order.
func (g *BeamGroup) MemberIDs() []string {
	ids := make([]string, len(g.Spans))
	for i, s := range g.Spans {
		ids[i] = s.ID
	}
	return ids
}

// SpanLengths returns the per-span lengths in group order.
func (g *BeamGroup) SpanLengths() []float64 {
	out := make([]float64, len(g.Spans))
	for i, s := range g.Spans {
		out[i] = s.Length()
	}
	return out
}

// Validate checks the group invariants: non-empty, no duplicate members,
// spans ordered by primary coordinate. Returns a plain error; callers
// treat a violation as a programming-contract fault, not a design outcome.
func (g *BeamGroup) Validate() error {
	if len(g.Spans) == 0 {
		return fmt.Errorf("group %s: no member spans", g.GroupID)
	}
	seen := make(map[string]bool, len(g.Spans))
	for i, s := range g.Spans {
		if s.ID == "" {
			return fmt.Errorf("group %s: span %d has empty ID", g.GroupID, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("group %s: duplicate member %s", g.GroupID, s.ID)
		}
		seen[s.ID] = true
		if i > 0 && s.PrimaryCoord() < g.Spans[i-1].PrimaryCoord() {
			return fmt.Errorf("group %s: spans not ordered at index %d", g.GroupID, i)
		}
	}
	return nil
}

// BarArea returns the cross-sectional area in mm² of one bar of the
// given diameter in mm.
func BarArea(diameter int) float64 {
	d := float64(diameter)
	return math.Pi / 4 * d * d
}
