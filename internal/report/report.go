// Package report renders human-readable bar callouts and group
// schedules for downstream labelling.
package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

// printer formats lengths and weights with thousands separators so
// schedule rows stay readable at drawing scale ("11,700" not "11700").
var printer = message.NewPrinter(language.English)

// Callout returns the bar callout string for one face of a span under
// the given solution, e.g. "4T20 + 2T20 (top)". The backbone comes
// first; addons for the span are appended zone-agnostically.
func Callout(sol *model.ContinuousBeamSolution, spanID string, f model.Face) string {
	dia, count := sol.DiaTop, sol.CountTop
	if f == model.FaceBottom {
		dia, count = sol.DiaBot, sol.CountBot
	}

	parts := []string{fmt.Sprintf("%dT%d", count, dia)}
	for _, a := range sol.Addons {
		if a.SpanID == spanID && a.Face == f {
			parts = append(parts, fmt.Sprintf("%dT%d", a.Count, a.Diameter))
		}
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, " + "), f)
}

// StirrupCallout renders the transverse pattern, e.g.
// "T10@100/200 (2 legs)".
func StirrupCallout(st model.StirrupLayout) string {
	return fmt.Sprintf("T%d@%.0f/%.0f (%d legs)",
		st.Diameter, st.SpacingEnd, st.SpacingMid, st.Legs)
}

// Schedule renders the full text schedule for a group and its selected
// solution: one header block, one row per span, and the totals line.
func Schedule(group *model.BeamGroup, sol *model.ContinuousBeamSolution) string {
	var b strings.Builder

	fmt.Fprintf(&b, "group %s (%s)\n", group.GroupID, group.Type)
	printer.Fprintf(&b, "option %s  spans %d  length %.0f mm\n",
		sol.OptionName, len(group.Spans), group.TotalLength())
	fmt.Fprintf(&b, "stirrups %s\n", StirrupCallout(sol.Stirrups))
	b.WriteString("\n")

	for _, sp := range group.Spans {
		printer.Fprintf(&b, "  span %-12s %8.0f mm  %s  %s\n",
			sp.ID, sp.Length(),
			Callout(sol, sp.ID, model.FaceTop),
			Callout(sol, sp.ID, model.FaceBottom),
		)
	}

	b.WriteString("\n")
	printer.Fprintf(&b, "splices %d  layers %d  waste %d  steel %.1f kg  score %.1f\n",
		sol.SpliceCount, sol.LayerCount, sol.WasteCount,
		sol.SteelWeightKg, sol.Score.Total)
	if sol.Locked {
		b.WriteString("selection locked by user\n")
	}
	return b.String()
}
