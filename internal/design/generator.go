package design

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/cutting"
	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// minBarsPerFace is the constructive minimum backbone count: every face
// carries at least two bars so stirrup corners have something to tie to.
const minBarsPerFace = 2

// Generate enumerates candidate scenarios for a group: the cross
// product of allowed top and bottom backbone diameters, each with the
// minimum bar count that satisfies the governing steel demand and fits
// the beam width.
//
// Every returned context is a fully isolated clone; candidates may be
// evaluated in any order, including in parallel.
//
// Returns EXTERNAL_DATA_MISSING if any member span has no analysis
// result attached.
func Generate(group *model.BeamGroup, s config.Settings) ([]*SolutionContext, error) {
	if err := group.Validate(); err != nil {
		return nil, fmt.Errorf("generate scenarios: %w", err)
	}
	for _, sp := range group.Spans {
		if sp.Demand == nil {
			return nil, NewExternalDataMissingError(group.GroupID, sp.ID)
		}
	}

	base := NewContext(group, s)
	SanitizeGeometry(base)

	reqTop := base.RequiredArea(model.FaceTop)
	reqBot := base.RequiredArea(model.FaceBottom)

	var contexts []*SolutionContext
	for _, diaTop := range s.AllowedDiameters {
		countTop, wasteTop, okTop := feasibleCount(s, base.Width, diaTop, reqTop)
		if !okTop {
			continue
		}
		for _, diaBot := range s.AllowedDiameters {
			countBot, wasteBot, okBot := feasibleCount(s, base.Width, diaBot, reqBot)
			if !okBot {
				continue
			}

			ctx := base.Clone()
			ctx.Stage = StageScenario
			ctx.DiaTop = diaTop
			ctx.CountTop = countTop
			ctx.DiaBot = diaBot
			ctx.CountBot = countBot
			ctx.WasteCount = wasteTop + wasteBot
			ctx.OptionName = fmt.Sprintf("%dT%d/%dT%d", countTop, diaTop, countBot, diaBot)
			contexts = append(contexts, ctx)
		}
	}

	slog.Debug("scenarios generated",
		"group", group.GroupID,
		"candidates", len(contexts),
		"req_top", reqTop,
		"req_bot", reqBot,
	)
	return contexts, nil
}

// feasibleCount returns the bar count for one face: the demand-driven
// minimum, raised to the constructive minimum and to any count forced
// by layering constraints. waste counts the bars added beyond what the
// demand alone required.
//
// ok is false when no count of this diameter can be placed within the
// configured layer limit.
func feasibleCount(s config.Settings, width float64, dia int, requiredArea float64) (count, waste int, ok bool) {
	area := model.BarArea(dia)
	demandNeed := int(math.Ceil(requiredArea / area))
	count = demandNeed
	if count < minBarsPerFace {
		count = minBarsPerFace
	}
	perLayer := cutting.MaxBarsPerLayer(s, width, dia)
	if perLayer == 0 {
		return 0, 0, false
	}

	// A second layer with a single bar cannot be tied symmetrically, so
	// a count of perLayer+1 rounds up to perLayer+2 (the 3+1 -> 3+2
	// case). The forced extra bar counts as waste below.
	if count > perLayer && count%perLayer == 1 {
		count++
	}

	layers := (count + perLayer - 1) / perLayer
	if layers > s.MaxLayers {
		return 0, 0, false
	}

	waste = count - demandNeed
	if waste < 0 {
		waste = 0
	}
	return count, waste, true
}
