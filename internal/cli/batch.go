package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wavecaptcha/pkg/errors"
	"github.com/matzehuels/wavecaptcha/pkg/pipeline"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	count      int
	length     int
	charset    string
	width      int
	height     int
	outDir     string
	seed       uint64
	seedSet    bool
	jobs       int
	fontPath   string
	fontSize   float64
	configPath string
}

// batchCommand creates the batch command for generating many images.
func (c *CLI) batchCommand() *cobra.Command {
	opts := batchOpts{
		count:   100,
		length:  pipeline.DefaultBatchLength,
		charset: pipeline.DefaultCharset,
		width:   pipeline.DefaultWidth,
		height:  pipeline.DefaultHeight,
		outDir:  ".",
	}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render many CAPTCHAs with random text into a directory",
		Long: `Render many CAPTCHAs with random text into a directory.

Each file is named <index>_<text>.png, so the directory doubles as a labeled
data set. Texts and per-image seeds derive from --seed, so a batch is
reproducible regardless of --jobs.`,
		Example: `  wavecaptcha batch --count 500 --length 4 --out data/ --seed 7`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			return c.runBatch(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", opts.count, "number of images")
	cmd.Flags().IntVarP(&opts.length, "length", "l", opts.length, "characters per image")
	cmd.Flags().StringVar(&opts.charset, "charset", opts.charset, "characters to draw text from")
	cmd.Flags().IntVar(&opts.width, "width", opts.width, "image width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", opts.height, "image height in pixels")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", opts.outDir, "output directory (created if missing)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "base random seed (default: pick one at random)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "concurrent renders (default: number of CPUs)")
	cmd.Flags().StringVar(&opts.fontPath, "font", "", "TrueType/OpenType font file (default: built-in Go Bold)")
	cmd.Flags().Float64Var(&opts.fontSize, "size", 0, "glyph size in pixels (default: width / characters)")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "TOML file overriding render constants")

	return cmd
}

// runBatch renders the batch behind a spinner.
func (c *CLI) runBatch(ctx context.Context, opts batchOpts) error {
	logger := loggerFromContext(ctx)

	if err := errors.ValidateDimensions(opts.width, opts.height); err != nil {
		return err
	}
	params, err := loadParams(opts.configPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	seed := resolveSeed(opts.seed, opts.seedSet)
	if !opts.seedSet {
		logger.Info("Using random seed", "seed", seed)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d captchas...", opts.count))
	spinner.Start()

	prog := newProgress(logger)
	items, err := c.newRunner().Batch(ctx, pipeline.BatchOptions{
		Count:    opts.count,
		Length:   opts.length,
		Charset:  opts.charset,
		Width:    opts.width,
		Height:   opts.height,
		OutDir:   opts.outDir,
		Seed:     seed,
		Jobs:     opts.jobs,
		FontPath: opts.fontPath,
		FontSize: opts.fontSize,
		Params:   params,
		Logger:   logger,
		Progress: func(done, total int) {
			spinner.SetMessage(fmt.Sprintf("Rendering captchas... %d/%d", done, total))
		},
	})
	if err != nil {
		spinner.StopWithError("Batch failed")
		return fmt.Errorf("batch: %w", err)
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d captchas", len(items)))

	printSuccess("Generated %s images", StyleNumber.Render(fmt.Sprint(len(items))))
	printFile(opts.outDir)
	printKeyValue("seed", fmt.Sprint(seed))
	return nil
}
