package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thanhtdvncc/dts-beam-tool/internal/config"
)

// NewValidateConfigCommand creates the validate-config command: check a
// settings file against the schema and the cross-field rules without
// touching the store.
func NewValidateConfigCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-config <file>",
		Short: "Validate a settings YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read settings file", err)
			}
			if err := config.ValidateDocument(data); err != nil {
				out.Error(err.Error())
				return WrapExitError(ExitFailure, "settings schema", err)
			}
			settings, err := config.Load(args[0])
			if err != nil {
				out.Error(err.Error())
				return WrapExitError(ExitFailure, "settings values", err)
			}
			return out.Success(fmt.Sprintf("%s is valid (%d allowed diameters, stock %.0f mm)",
				args[0], len(settings.AllowedDiameters), settings.StockBarLength))
		},
	}
}
