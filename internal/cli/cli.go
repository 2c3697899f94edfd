// Package cli implements the wavecaptcha command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wavecaptcha/pkg/buildinfo"
	"github.com/matzehuels/wavecaptcha/pkg/config"
	"github.com/matzehuels/wavecaptcha/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "wavecaptcha"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Wavecaptcha renders distorted-text CAPTCHA images",
		Long:         `Wavecaptcha renders a string as a CAPTCHA: wave-distorted colored glyphs over a gradient, overlaid with line and speckle noise and softened by a box blur, written as PNG.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadParams reads the optional config file.
func loadParams(path string) (*pipeline.Params, error) {
	p, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// resolveSeed returns seed when the flag was set, or a fresh random seed.
func resolveSeed(seed uint64, set bool) uint64 {
	if set {
		return seed
	}
	return pipeline.RandomSeed()
}
