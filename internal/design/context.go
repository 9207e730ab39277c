package design

import (
	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// Pipeline stage names, recorded as the fail stage when a Critical
// result short-circuits a scenario.
const (
	StageSanitize = "sanitize"
	StageScenario = "scenario"
	StageProfile  = "profile"
	StageValidate = "validate"
	StageScore    = "score"
)

// SolutionContext is the working state for one candidate scenario as it
// moves through the pipeline stages.
//
// The input references (Group, Settings) are read-only and shared
// between clones; everything else is per-candidate. Contexts are
// disposable: after scoring only the resulting solution is retained.
type SolutionContext struct {
	// Read-only inputs, shared across clones.
	Group    *model.BeamGroup
	Settings config.Settings

	// Sanitized geometry with fallbacks applied.
	Width       float64
	Depth       float64
	TotalLength float64

	// Scenario parameters assigned by the generator.
	OptionName string
	DiaTop     int
	CountTop   int
	DiaBot     int
	CountBot   int

	// WasteCount tracks bar-count round-ups forced by constructive
	// constraints rather than demand.
	WasteCount int

	// Outputs.
	Solution *model.ContinuousBeamSolution
	Results  []model.ValidationResult
	Penalty  float64

	// Control.
	Stage     string
	Valid     bool
	FailStage string
}

// NewContext creates the base context for a group. Scenario fields are
// unset until the generator assigns them.
func NewContext(group *model.BeamGroup, s config.Settings) *SolutionContext {
	return &SolutionContext{
		Group:    group,
		Settings: s,
		Valid:    true,
	}
}

// Clone produces a fresh context sharing the read-only input references
// but with scenario, output and control fields reset.
//
// ISOLATION INVARIANT: mutating one clone's scenario parameters must
// never affect another. Only Group and Settings are shared, and both
// are treated as immutable during a pass.
func (c *SolutionContext) Clone() *SolutionContext {
	return &SolutionContext{
		Group:       c.Group,
		Settings:    c.Settings,
		Width:       c.Width,
		Depth:       c.Depth,
		TotalLength: c.TotalLength,
		Valid:       true,
	}
}

// AddResult appends a rule result, accumulates its penalty, and marks
// the scenario invalid on a Critical. A Critical is a normal losing
// outcome: the context records the fail stage and keeps going nowhere,
// but no error is raised.
func (c *SolutionContext) AddResult(r model.ValidationResult) {
	c.Results = append(c.Results, r)
	c.Penalty += r.Penalty
	if r.Severity == model.SeverityCritical && c.Valid {
		c.Valid = false
		c.FailStage = c.Stage
	}
}

// ProvidedArea returns the backbone area for a face under the current
// scenario parameters.
func (c *SolutionContext) ProvidedArea(f model.Face) float64 {
	if f == model.FaceTop {
		return float64(c.CountTop) * model.BarArea(c.DiaTop)
	}
	return float64(c.CountBot) * model.BarArea(c.DiaBot)
}

// RequiredArea returns the governing demand for a face across the whole
// group, including the configured torsion share.
func (c *SolutionContext) RequiredArea(f model.Face) float64 {
	var req float64
	for _, sp := range c.Group.Spans {
		if sp.Demand == nil {
			continue
		}
		area := sp.Demand.MaxArea(f)
		if f == model.FaceTop {
			area += c.Settings.TorsionTopFactor * sp.Demand.TorsionArea
		} else {
			area += c.Settings.TorsionBotFactor * sp.Demand.TorsionArea
		}
		if area > req {
			req = area
		}
	}
	return req
}
