package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/internal/config"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// layoutCommand creates the layout command for computing visualization layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		lf      layoutFlags
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [document]",
		Short: "Compute the layout of a hierarchical document",
		Long: `Compute the layout of a hierarchical document.

The layout command parses the document, positions every node and, for bundle
views, routes and smooths every edge. The output is a layout.json file (same
format as 'render -f json') that 'visualize' renders to SVG, PNG, PDF or DOT.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := lf.options(cfg, args[0])
			opts.Refresh = refresh
			return c.runLayout(cmd.Context(), cfg, args[0], opts, output, noCache)
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runLayout reads the document, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, cfg *config.Config, input string, opts pipeline.Options, output string, noCache bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.VizType))
	spinner.Start()

	result, err := runner.ComputeLayout(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	prog.done("computed layout for "+input, result.Stats)

	outputPath := output
	if outputPath == "" {
		outputPath = defaultLayoutPath(input)
	}
	if err := graph.WriteLayoutFile(result.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	printFailures(result)
	printNewline()
	printNextStep("Render", appName+" visualize "+outputPath)

	return nil
}

// defaultLayoutPath names the layout file written for a document.
func defaultLayoutPath(input string) string {
	return outputPath(basePath("", input), pipeline.FormatJSON)
}
