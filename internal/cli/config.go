package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/wavecaptcha/pkg/config"
)

// configCommand creates the config command that prints the effective render
// constants.
func (c *CLI) configCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective render constants as TOML",
		Long: `Print the effective render constants as TOML.

Without --config the built-in defaults are printed. The output is a complete
config file and can be edited and passed back with --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), params)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML file overriding render constants")

	return cmd
}
