package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
	"github.com/thanhtdvncc/dts-beam-tool/internal/engine"
	"github.com/thanhtdvncc/dts-beam-tool/internal/report"
	"github.com/thanhtdvncc/dts-beam-tool/internal/rules"
	"github.com/thanhtdvncc/dts-beam-tool/internal/store"
)

// NewSolutionsCommand creates the solutions command: print the
// persisted selected solution per group without regenerating anything.
func NewSolutionsCommand(opts *RootOptions) *cobra.Command {
	var lock string

	cmd := &cobra.Command{
		Use:   "solutions",
		Short: "Show persisted solutions, optionally locking one group's selection",
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

			type entry struct {
				GroupID  string `json:"group_id"`
				Option   string `json:"option,omitempty"`
				Score    float64
				Locked   bool
				Schedule string `json:"-"`
			}
			entries := make([]entry, 0, len(groups))

			for i := range groups {
				g := &groups[i]
				sol, ok, err := eng.LoadSelected(cmd.Context(), g)
				if err != nil {
					return WrapExitError(ExitCommandError, "load solution", err)
				}
				if !ok {
					entries = append(entries, entry{GroupID: g.GroupID})
					continue
				}
				if lock != "" && g.GroupID == lock {
					if err := eng.LockSelected(cmd.Context(), g, sol); err != nil {
						return WrapExitError(ExitCommandError, "lock solution", err)
					}
					sol = g.Selected
				}
				entries = append(entries, entry{
					GroupID:  g.GroupID,
					Option:   sol.OptionName,
					Score:    sol.Score.Total,
					Locked:   sol.Locked,
					Schedule: report.Schedule(g, sol),
				})
			}

			if opts.Format == "json" {
				return out.Success(entries)
			}

			var b strings.Builder
			for _, e := range entries {
				if e.Option == "" {
					fmt.Fprintf(&b, "group %s: no persisted solution\n\n", e.GroupID)
					continue
				}
				b.WriteString(e.Schedule)
				b.WriteString("\n")
			}
			return out.Success(strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().StringVar(&lock, "lock", "", "group ID whose persisted selection should be locked")
	return cmd
}
