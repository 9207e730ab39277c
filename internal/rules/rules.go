// Package rules carries the concrete design rule set.
//
// Each rule is an independent check over a SolutionContext, registered
// with a priority and evaluated in ascending priority order. Rules only
// read the context; penalties and severities flow back through the
// returned ValidationResult. Adding a rule here never requires touching
// an existing one.
package rules

import (
	"fmt"

	"github.com/thanhtdvncc/dts-beam-tool/internal/cutting"
	"github.com/thanhtdvncc/dts-beam-tool/internal/design"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// Default returns the standard rule set in registration order. The
// returned slice is freshly allocated; callers may append their own.
func Default() []design.Rule {
	return []design.Rule{
		MinBarCount{},
		ClearSpacing{},
		CapacityAdequacy{},
		MaxLayerCount{},
		VerticalAlignment{},
		DiameterTransition{},
	}
}

// MinBarCount rejects faces with fewer than two backbone bars: a cage
// needs a bar in each stirrup corner.
type MinBarCount struct{}

func (MinBarCount) Name() string  { return "min-bar-count" }
func (MinBarCount) Priority() int { return 10 }

func (r MinBarCount) Evaluate(c *design.SolutionContext) model.ValidationResult {
	if c.CountTop < 2 || c.CountBot < 2 {
		return model.ValidationResult{
			Rule:     r.Name(),
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("backbone counts %d/%d below minimum of 2 per face", c.CountTop, c.CountBot),
		}
	}
	return model.Pass(r.Name())
}

// ClearSpacing rejects scenarios whose bar layers cannot physically fit
// the beam width at the required clear spacing within the layer limit.
type ClearSpacing struct{}

func (ClearSpacing) Name() string  { return "clear-spacing" }
func (ClearSpacing) Priority() int { return 20 }

func (r ClearSpacing) Evaluate(c *design.SolutionContext) model.ValidationResult {
	for _, f := range []model.Face{model.FaceTop, model.FaceBottom} {
		dia, count := c.DiaTop, c.CountTop
		if f == model.FaceBottom {
			dia, count = c.DiaBot, c.CountBot
		}
		if _, ok := cutting.LayersFor(c.Settings, c.Width, dia, count); !ok {
			return model.ValidationResult{
				Rule:     r.Name(),
				Severity: model.SeverityCritical,
				Message: fmt.Sprintf("%d bars of T%d do not fit width %.0f within %d layers (%s)",
					count, dia, c.Width, c.Settings.MaxLayers, f),
			}
		}
	}
	return model.Pass(r.Name())
}

// CapacityAdequacy rejects scenarios whose backbone plus addons still
// fall short of the governing required area on either face.
type CapacityAdequacy struct{}

func (CapacityAdequacy) Name() string  { return "capacity-adequacy" }
func (CapacityAdequacy) Priority() int { return 30 }

func (r CapacityAdequacy) Evaluate(c *design.SolutionContext) model.ValidationResult {
	for _, f := range []model.Face{model.FaceTop, model.FaceBottom} {
		required := c.RequiredArea(f)
		provided := c.ProvidedArea(f)
		if c.Solution != nil {
			for _, a := range c.Solution.Addons {
				if a.Face == f {
					provided += float64(a.Count) * model.BarArea(a.Diameter)
				}
			}
		}
		if provided < required {
			return model.ValidationResult{
				Rule:     r.Name(),
				Severity: model.SeverityCritical,
				Message: fmt.Sprintf("%s face provides %.0f mm2 of %.0f mm2 required",
					f, provided, required),
			}
		}
	}
	return model.Pass(r.Name())
}

// MaxLayerCount warns when the cage needs more than one layer and
// rejects layouts beyond the configured limit. Deep layers reduce the
// effective depth the analysis assumed.
type MaxLayerCount struct{}

func (MaxLayerCount) Name() string  { return "max-layer-count" }
func (MaxLayerCount) Priority() int { return 40 }

// layerPenalty is the warning penalty per layer beyond the first.
const layerPenalty = 10.0

func (r MaxLayerCount) Evaluate(c *design.SolutionContext) model.ValidationResult {
	if c.Solution == nil {
		return model.Pass(r.Name())
	}
	layers := c.Solution.LayerCount
	if layers > c.Settings.MaxLayers {
		return model.ValidationResult{
			Rule:     r.Name(),
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("%d layers exceed limit of %d", layers, c.Settings.MaxLayers),
		}
	}
	if layers > 1 {
		return model.ValidationResult{
			Rule:     r.Name(),
			Severity: model.SeverityWarning,
			Penalty:  layerPenalty * float64(layers-1),
			Message:  fmt.Sprintf("%d reinforcement layers", layers),
		}
	}
	return model.Pass(r.Name())
}

// VerticalAlignment checks that top and bottom backbone counts share
// parity so stirrup legs can tie straight down. A parity mismatch is a
// warning with the configured penalty; a count difference beyond 2 adds
// a further step penalty per unit.
type VerticalAlignment struct{}

func (VerticalAlignment) Name() string  { return "vertical-alignment" }
func (VerticalAlignment) Priority() int { return 50 }

func (r VerticalAlignment) Evaluate(c *design.SolutionContext) model.ValidationResult {
	diff := c.CountTop - c.CountBot
	if diff < 0 {
		diff = -diff
	}

	parityMismatch := (c.CountTop+c.CountBot)%2 != 0
	var penalty float64
	var msg string
	if parityMismatch {
		penalty = c.Settings.VerticalAlignPenalty
		msg = fmt.Sprintf("top count %d and bottom count %d differ in parity", c.CountTop, c.CountBot)
	}
	if diff > 2 {
		penalty += c.Settings.VerticalAlignDiffStep * float64(diff-2)
		if msg != "" {
			msg += "; "
		}
		msg += fmt.Sprintf("count difference %d exceeds 2", diff)
	}

	if penalty == 0 {
		return model.Pass(r.Name())
	}
	return model.ValidationResult{
		Rule:     r.Name(),
		Severity: model.SeverityWarning,
		Penalty:  penalty,
		Message:  msg,
	}
}

// DiameterTransition warns when addon diameters drift more than two
// steps from the face backbone diameter. Mixed far-apart diameters in
// one face invite placement mistakes on site.
type DiameterTransition struct{}

func (DiameterTransition) Name() string  { return "diameter-transition" }
func (DiameterTransition) Priority() int { return 60 }

// transitionPenalty applies once per offending face.
const transitionPenalty = 8.0

func (r DiameterTransition) Evaluate(c *design.SolutionContext) model.ValidationResult {
	if c.Solution == nil {
		return model.Pass(r.Name())
	}
	steps := func(d int) int {
		for i, a := range c.Settings.AllowedDiameters {
			if a == d {
				return i
			}
		}
		return -1
	}
	for _, a := range c.Solution.Addons {
		base := c.DiaTop
		if a.Face == model.FaceBottom {
			base = c.DiaBot
		}
		bi, ai := steps(base), steps(a.Diameter)
		if bi < 0 || ai < 0 {
			continue
		}
		if d := bi - ai; d > 2 || d < -2 {
			return model.ValidationResult{
				Rule:     r.Name(),
				Severity: model.SeverityWarning,
				Penalty:  transitionPenalty,
				Message: fmt.Sprintf("addon T%d more than two steps from backbone T%d (%s)",
					a.Diameter, base, a.Face),
			}
		}
	}
	return model.Pass(r.Name())
}
