package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/internal/config"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// renderCommand creates the render command: document in, artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		lf      layoutFlags
		rf      renderFlags
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render a hierarchical document",
		Long: `Render a hierarchical document in one step.

The document is parsed, laid out, bundled and drawn in every requested format.
Use 'layout' and 'visualize' to run the two halves separately.

Layouts and artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := lf.options(cfg, args[0])
			rf.apply(&opts)
			opts.Refresh = refresh
			return c.runRender(cmd.Context(), cfg, args[0], opts, rf.output, noCache)
		},
	}

	lf.register(cmd)
	rf.register(cmd)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, cfg *config.Config, input string, opts pipeline.Options, output string, noCache bool) error {
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
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", opts.VizType))
	spinner.Start()

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	prog.done("rendered "+input, result.Stats)

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    output,
	})
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	printFailures(result)
	return nil
}

// printFailures lists the edges a lenient run skipped.
func printFailures(result *pipeline.Result) {
	for _, f := range result.Layout.Failures {
		printWarning("skipped edge %d %s → %s: %s", f.Index, f.Source, f.Target, f.Error)
	}
}
