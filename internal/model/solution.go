package model

import (
	"fmt"
	"math"
)

// Severity classifies a design rule outcome.
type Severity int

const (
	SeverityPass Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityPass:
		return "pass"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ValidationResult is one design rule's verdict on a candidate scenario.
// Results are append-only per scenario; a Critical result marks the
// scenario invalid but is a normal outcome, not an error.
type ValidationResult struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Penalty  float64  `json:"penalty"`
	Message  string   `json:"message,omitempty"`
}

// Pass is the zero-penalty result for a rule.
func Pass(rule string) ValidationResult {
	return ValidationResult{Rule: rule, Severity: SeverityPass}
}

// AddonBar is a short local reinforcement supplementing the backbone in
// one zone of one span.
type AddonBar struct {
	SpanID   string `json:"span_id"`
	Zone     Zone   `json:"zone"`
	Face     Face   `json:"face"`
	Diameter int    `json:"diameter"`
	Count    int    `json:"count"`
}

// StirrupLayout is the transverse reinforcement pattern for a group.
// End regions get the tighter spacing; the middle gets the wider one.
type StirrupLayout struct {
	Diameter   int     `json:"diameter"`
	Legs       int     `json:"legs"`
	SpacingEnd float64 `json:"spacing_end"`
	SpacingMid float64 `json:"spacing_mid"`
}

// BarSegment is one cut piece of a backbone bar, positioned along the
// cumulative length of the beam group (mm from the group start).
type BarSegment struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	IsTop  bool    `json:"is_top"`
	SpanID string  `json:"span_id,omitempty"`
}

// Length returns the segment length in mm.
func (b BarSegment) Length() float64 {
	return b.End - b.Start
}

// ScoreBreakdown holds the constructability score and its normalized
// subscores, each in [0,100].
type ScoreBreakdown struct {
	Total     float64 `json:"total"`
	Splices   float64 `json:"splices"`
	Diversity float64 `json:"diversity"`
	Spacing   float64 `json:"spacing"`
	Layering  float64 `json:"layering"`
}

// ContinuousBeamSolution is one fully computed candidate reinforcement
// layout for a beam group.
//
// A solution is immutable once produced: scoring annotates a copy, and
// winner selection compares siblings without mutating them. A Locked
// solution was chosen manually by the user and survives regeneration.
type ContinuousBeamSolution struct {
	OptionName string `json:"option_name"`
	GroupID    string `json:"group_id"`

	DiaTop   int `json:"dia_top"`
	CountTop int `json:"count_top"`
	DiaBot   int `json:"dia_bot"`
	CountBot int `json:"count_bot"`

	Addons   []AddonBar    `json:"addons,omitempty"`
	Stirrups StirrupLayout `json:"stirrups"`
	Segments []BarSegment  `json:"segments,omitempty"`

	SpliceCount   int     `json:"splice_count"`
	LayerCount    int     `json:"layer_count"`
	WasteCount    int     `json:"waste_count"`
	SteelWeightKg float64 `json:"steel_weight_kg"`

	Score ScoreBreakdown `json:"score"`

	Valid     bool   `json:"valid"`
	FailStage string `json:"fail_stage,omitempty"`
	Locked    bool   `json:"locked"`

	Results []ValidationResult `json:"results,omitempty"`
}

// ProvidedArea returns the backbone steel area in mm² for a face.
func (s *ContinuousBeamSolution) ProvidedArea(f Face) float64 {
	if f == FaceTop {
		return float64(s.CountTop) * BarArea(s.DiaTop)
	}
	return float64(s.CountBot) * BarArea(s.DiaBot)
}

// DistinctDiameters returns the number of distinct bar diameters used
// across the backbone and all addons. Fewer is easier to build.
func (s *ContinuousBeamSolution) DistinctDiameters() int {
	set := map[int]bool{s.DiaTop: true, s.DiaBot: true}
	for _, a := range s.Addons {
		set[a.Diameter] = true
	}
	return len(set)
}

// steelDensity is the mass density of reinforcement steel in kg/mm³.
const steelDensity = 7850e-9

// BarWeight returns the mass in kg of a bar run: count bars of the
// given diameter over the given length in mm.
func BarWeight(diameter, count int, length float64) float64 {
	return BarArea(diameter) * float64(count) * length * steelDensity
}

// SameScenario reports whether two solutions carry the same backbone
// parameters. Used to re-attach a locked solution after regeneration.
func (s *ContinuousBeamSolution) SameScenario(o *ContinuousBeamSolution) bool {
	if o == nil {
		return false
	}
	return s.DiaTop == o.DiaTop && s.CountTop == o.CountTop &&
		s.DiaBot == o.DiaBot && s.CountBot == o.CountBot
}

// TotalPenalty sums the penalties of all accumulated rule results.
func (s *ContinuousBeamSolution) TotalPenalty() float64 {
	var p float64
	for _, r := range s.Results {
		p += r.Penalty
	}
	return p
}

// RoundWeight rounds a steel weight to one decimal for display and
// persistence so that round-trips compare exactly.
func RoundWeight(kg float64) float64 {
	return math.Round(kg*10) / 10
}
