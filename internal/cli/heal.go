package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/registry"
	"github.com/thanhtdvncc/dts-beam-tool/internal/rules"
	"github.com/thanhtdvncc/dts-beam-tool/internal/store"

	"github.com/thanhtdvncc/dts-beam-tool/internal/engine"
)

// NewHealCommand creates the heal command: reconcile group identity
// records with the live spans without running any design.
func NewHealCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "heal",
		Short: "Reconcile group identity records with the drawing store",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

			settings, err := config.Load(opts.Settings)
			if err != nil {
				return WrapExitError(ExitFailure, "load settings", err)
			}
			st, err := store.Open(opts.Store)
			if err != nil {
				return WrapExitError(ExitCommandError, "open store", err)
			}
			defer st.Close()

			eng := engine.New(st, settings, rules.Default())
			groups, err := eng.BuildGroups(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "build groups", err)
			}

			reports := make([]registry.HealReport, 0, len(groups))
			for i := range groups {
				rep, err := eng.Registry().Heal(cmd.Context(), &groups[i])
				if err != nil {
					return WrapExitError(ExitCommandError, "heal group", err)
				}
				reports = append(reports, rep)
			}

			if opts.Format == "json" {
				return out.Success(reports)
			}

			var b strings.Builder
			changed := 0
			for _, rep := range reports {
				if !rep.Changed() {
					continue
				}
				changed++
				fmt.Fprintf(&b, "group %s:", rep.GroupID)
				if rep.MintedID != "" {
					b.WriteString(" minted identity")
				}
				if rep.Resurrected {
					b.WriteString(" resurrected registry entry")
				}
				if n := len(rep.GhostsPurged); n > 0 {
					fmt.Fprintf(&b, " purged %d ghost member(s)", n)
				}
				if n := len(rep.DuplicatesSplit); n > 0 {
					fmt.Fprintf(&b, " split %d duplicate(s)", n)
					if rep.SplitGroupID != "" {
						fmt.Fprintf(&b, " into %s", rep.SplitGroupID)
					}
				}
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%d group(s) checked, %d changed", len(reports), changed)
			return out.Success(b.String())
		},
	}
}
