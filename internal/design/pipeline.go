package design

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/thanhtdvncc/dts-beam-tool/internal/cutting"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// SanitizeGeometry resolves the working width, depth and total length
// for a context, falling back to configured defaults for unusable
// values. Invalid geometry degrades, it never aborts the group.
func SanitizeGeometry(c *SolutionContext) {
	c.Stage = StageSanitize
	s := c.Settings

	if anchor, ok := c.Group.Anchor(); ok {
		c.Width = anchor.Width
		c.Depth = anchor.Depth
	}
	if c.Width <= 0 {
		slog.Warn("span width unusable, using default",
			"group", c.Group.GroupID, "default", s.DefaultWidth)
		c.Width = s.DefaultWidth
	}
	if c.Depth <= 0 {
		slog.Warn("span depth unusable, using default",
			"group", c.Group.GroupID, "default", s.DefaultDepth)
		c.Depth = s.DefaultDepth
	}

	c.TotalLength = c.Group.TotalLength()
	if c.TotalLength <= 0 {
		slog.Warn("group length unusable, using default",
			"group", c.Group.GroupID, "default", s.DefaultLength)
		c.TotalLength = s.DefaultLength
	}
}

// ComputeProfile builds the full reinforcement profile for the current
// scenario parameters: backbone segmentation and splices, per-zone
// addon bars, the stirrup layout, layer count and steel weight.
//
// The resulting solution is attached to the context; rule evaluation
// and scoring read it from there.
func ComputeProfile(c *SolutionContext) error {
	c.Stage = StageProfile
	group := c.Group
	s := c.Settings

	anchor, _ := group.Anchor()
	startSupport := model.SupportFreeEnd
	endSupport := model.SupportFreeEnd
	if len(group.Spans) > 0 {
		startSupport = group.Spans[0].SupportStart
		endSupport = group.Spans[len(group.Spans)-1].SupportEnd
	}

	topCut, err := cutting.ProcessComplete(
		c.TotalLength, group.Spans, true, group.Type,
		startSupport, endSupport,
		c.DiaTop, c.CountTop,
		anchor.ConcreteGrade, anchor.SteelGrade, s,
	)
	if err != nil {
		return fmt.Errorf("cut top layer: %w", err)
	}
	botCut, err := cutting.ProcessComplete(
		c.TotalLength, group.Spans, false, group.Type,
		startSupport, endSupport,
		c.DiaBot, c.CountBot,
		anchor.ConcreteGrade, anchor.SteelGrade, s,
	)
	if err != nil {
		return fmt.Errorf("cut bottom layer: %w", err)
	}

	topLayers, _ := cutting.LayersFor(s, c.Width, c.DiaTop, c.CountTop)
	botLayers, _ := cutting.LayersFor(s, c.Width, c.DiaBot, c.CountBot)
	layers := topLayers
	if botLayers > layers {
		layers = botLayers
	}
	if layers < 1 {
		layers = 1
	}

	sol := &model.ContinuousBeamSolution{
		OptionName:  c.OptionName,
		GroupID:     group.GroupID,
		DiaTop:      c.DiaTop,
		CountTop:    c.CountTop,
		DiaBot:      c.DiaBot,
		CountBot:    c.CountBot,
		Addons:      computeAddons(c),
		Stirrups:    stirrupLayout(c),
		Segments:    append(topCut.Segments, botCut.Segments...),
		SpliceCount: topCut.SpliceCount + botCut.SpliceCount,
		LayerCount:  layers,
		WasteCount:  c.WasteCount,
		Valid:       true,
	}
	sol.SteelWeightKg = model.RoundWeight(steelWeight(c, sol))
	c.Solution = sol
	return nil
}

// computeAddons covers per-zone demand the backbone alone cannot, one
// addon set per span/zone/face with a deficit. Addons reuse the face's
// backbone diameter so the cage keeps a small diameter palette.
func computeAddons(c *SolutionContext) []model.AddonBar {
	var addons []model.AddonBar
	s := c.Settings
	for _, sp := range c.Group.Spans {
		if sp.Demand == nil {
			continue
		}
		for _, z := range []model.Zone{model.ZoneStart, model.ZoneMid, model.ZoneEnd} {
			zd := sp.Demand.Zone(z)
			for _, f := range []model.Face{model.FaceTop, model.FaceBottom} {
				req := zd.TopArea
				dia := c.DiaTop
				torsion := s.TorsionTopFactor
				if f == model.FaceBottom {
					req = zd.BotArea
					dia = c.DiaBot
					torsion = s.TorsionBotFactor
				}
				req += torsion * sp.Demand.TorsionArea

				deficit := req - c.ProvidedArea(f)
				if deficit <= 1 { // mm², below measurable
					continue
				}
				count := int(math.Ceil(deficit / model.BarArea(dia)))
				addons = append(addons, model.AddonBar{
					SpanID:   sp.ID,
					Zone:     z,
					Face:     f,
					Diameter: dia,
					Count:    count,
				})
			}
		}
	}
	return addons
}

// stirrupLayout derives the transverse pattern from the section depth
// and group type. Girders and end regions get the tighter spacing.
func stirrupLayout(c *SolutionContext) model.StirrupLayout {
	s := c.Settings
	legs := 2
	if c.Width >= 350 {
		legs = 4
	}

	end := math.Min(c.Depth/4, 150)
	mid := math.Min(c.Depth/2, 250)
	if c.Group.Type == model.GroupGirder {
		mid = math.Min(c.Depth/2, 200)
	}
	// Spacing snapped down to 10 mm increments for buildability.
	end = math.Floor(end/10) * 10
	mid = math.Floor(mid/10) * 10

	return model.StirrupLayout{
		Diameter:   s.StirrupDia,
		Legs:       legs,
		SpacingEnd: end,
		SpacingMid: mid,
	}
}

// steelWeight totals the backbone runs (segment lengths, laps
// included), addons and stirrups in kg.
func steelWeight(c *SolutionContext, sol *model.ContinuousBeamSolution) float64 {
	var topLen, botLen float64
	for _, seg := range sol.Segments {
		if seg.IsTop {
			topLen += seg.Length()
		} else {
			botLen += seg.Length()
		}
	}
	weight := model.BarWeight(sol.DiaTop, sol.CountTop, topLen) +
		model.BarWeight(sol.DiaBot, sol.CountBot, botLen)

	// Addon length: a third of the host span plus an anchorage tail of
	// 40 diameters at each end.
	spanLen := make(map[string]float64, len(c.Group.Spans))
	for _, sp := range c.Group.Spans {
		spanLen[sp.ID] = sp.Length()
	}
	for _, a := range sol.Addons {
		l := spanLen[a.SpanID]/3 + 80*float64(a.Diameter)
		weight += model.BarWeight(a.Diameter, a.Count, l)
	}

	// Stirrups: hoop perimeter times the count implied by the average
	// spacing over the group length.
	st := sol.Stirrups
	if st.SpacingEnd > 0 && st.SpacingMid > 0 {
		avgSpacing := (st.SpacingEnd + st.SpacingMid) / 2
		n := int(c.TotalLength/avgSpacing) + 1
		hoop := 2*(c.Width+c.Depth-4*c.Settings.SideCover) + 150
		weight += model.BarWeight(st.Diameter, n*st.Legs/2, hoop)
	}

	return weight
}

// RunRules evaluates the rule set in priority order, accumulating
// results and penalties. A Critical short-circuits the remaining rules;
// the scenario is simply a losing candidate from then on.
func RunRules(c *SolutionContext, rules []Rule) {
	c.Stage = StageValidate
	for _, r := range SortRules(rules) {
		res := r.Evaluate(c)
		c.AddResult(res)
		if res.Severity == model.SeverityCritical {
			slog.Debug("scenario rejected",
				"group", c.Group.GroupID,
				"option", c.OptionName,
				"rule", res.Rule,
				"message", res.Message,
			)
			return
		}
	}
}

// RunPipeline executes the strictly ordered stages for one already
// parameterized context and finalizes its solution.
func RunPipeline(c *SolutionContext, rules []Rule) error {
	if c.Width <= 0 || c.TotalLength <= 0 {
		SanitizeGeometry(c)
	}
	if err := ComputeProfile(c); err != nil {
		return err
	}
	RunRules(c, rules)

	sol := c.Solution
	sol.Valid = c.Valid
	sol.FailStage = c.FailStage
	sol.Results = append([]model.ValidationResult(nil), c.Results...)
	return nil
}
