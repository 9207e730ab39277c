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

// NewDesignCommand creates the design command: run a full pass over
// every group in the store and persist the winners.
func NewDesignCommand(opts *RootOptions) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Design rebar layouts for every beam group in the store",
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
			results, err := eng.RunAll(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "design pass", err)
			}

			if opts.Format == "json" {
				return out.Success(results)
			}

			var b strings.Builder
			for _, res := range results {
				if res.Err != nil {
					fmt.Fprintf(&b, "group %s: skipped: %v\n\n", res.Group.GroupID, res.Err)
					continue
				}
				b.WriteString(report.Schedule(res.Group, res.Group.Selected))
				if top > 0 && res.Outcome != nil {
					fmt.Fprintf(&b, "top %d candidates:\n", top)
					for i, sol := range res.Outcome.Solutions {
						if i >= top {
							break
						}
						fmt.Fprintf(&b, "  %-14s score %6.1f  splices %d  valid %v\n",
							sol.OptionName, sol.Score.Total, sol.SpliceCount, sol.Valid)
					}
				}
				b.WriteString("\n")
			}
			return out.Success(strings.TrimRight(b.String(), "\n"))
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "also list the top N ranked candidates per group")
	return cmd
}
