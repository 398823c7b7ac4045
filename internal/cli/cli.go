// Package cli implements the hierbundle command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/internal/config"
	"github.com/matzehuels/hierbundle/pkg/buildinfo"
	"github.com/matzehuels/hierbundle/pkg/cache"
	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "hierbundle"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// flagKeys maps command-line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"delimiter":     config.KeyDelimiter,
	"tension":       config.KeyTension,
	"spline":        config.KeySpline,
	"width":         config.KeyWidth,
	"height":        config.KeyHeight,
	"cache-backend": config.KeyCacheBackend,
	"redis-addr":    config.KeyCacheRedisAddr,
	"addr":          config.KeyServerAddr,
}

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configOpts is passed to config.Load; tests use it to isolate paths.
	configOpts []config.Option
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
		Short:        "Hierbundle draws relations between leaves of a hierarchy as bundled curves",
		Long:         `Hierbundle reads hierarchical, relational documents (JSON, YAML or TOML), arranges the hierarchy radially and routes every relation through the tree so that edges sharing ancestors bundle together.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig resolves the configuration, letting every flag the user set on
// cmd override its configuration key.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	opts := append([]config.Option{config.WithOverrides(overrides)}, c.configOpts...)
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	for _, src := range cfg.Sources {
		c.Logger.Debug("loaded config", "path", src)
	}
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	store, err := c.openCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, cfg.Keyer(), c.Logger), nil
}

func (c *CLI) openCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("no cache directory", "err", err)
		dir = ""
	}
	return cfg.OpenCache(ctx, dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/hierbundle/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags holds the flags shared by every command that computes a layout.
type layoutFlags struct {
	inputFormat string
	vizType     string
	delimiter   string
	tension     float64
	spline      string
	width       float64
	height      float64
	lenient     bool
	workers     int
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.inputFormat, "input-format", "", "document format: json, yaml, toml (default: from file extension)")
	cmd.Flags().StringVarP(&f.vizType, "type", "t", pipeline.DefaultVizType, "visualization type: bundle, tree, project, nodelink")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "identifier delimiter when the document names none (default \".\")")
	cmd.Flags().Float64Var(&f.tension, "tension", 0, "bundling strength in [0, 1] (default from config, 0.85)")
	cmd.Flags().StringVar(&f.spline, "spline", "", "curve spline: catmull-rom (default), basis")
	cmd.Flags().Float64Var(&f.width, "width", 0, "frame width (default from config, 800)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "frame height (default from config, 800)")
	cmd.Flags().BoolVar(&f.lenient, "lenient", false, "skip edges that cannot be bundled instead of failing")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "bundle edges concurrently with this many workers")

	completeValues(cmd, "input-format", graph.FormatJSON, graph.FormatYAML, graph.FormatTOML)
	completeValues(cmd, "type", graph.VizTypeBundle, graph.VizTypeTree, graph.VizTypeProject, graph.VizTypeNodelink)
	completeValues(cmd, "spline", string(bundle.SplineCatmullRom), string(bundle.SplineBasis))
}

// options merges the flags with cfg, which already carries every changed
// layout flag as an override.
func (f *layoutFlags) options(cfg *config.Config, input string) pipeline.Options {
	opts := cfg.LayoutOptions()
	opts.Format = f.inputFormat
	if opts.Format == "" {
		opts.Format = graph.FormatFromPath(input)
	}
	opts.VizType = f.vizType
	opts.Lenient = f.lenient
	opts.Workers = f.workers
	return opts
}

// renderFlags holds the flags shared by every command that writes artifacts.
type renderFlags struct {
	formats string
	output  string
	labels  bool
	theme   string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&f.labels, "labels", false, "draw leaf labels")
	cmd.Flags().StringVar(&f.theme, "theme", pipeline.DefaultTheme, "colour theme: light, dark")

	completeValues(cmd, "format", pipeline.ValidFormats...)
	completeValues(cmd, "theme", pipeline.ValidThemes...)
}

// completeValues offers a fixed set of values for a flag's shell completion.
func completeValues(cmd *cobra.Command, flag string, values ...string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

func (f *renderFlags) apply(opts *pipeline.Options) {
	opts.Formats = parseFormats(f.formats)
	opts.Labels = f.labels
	opts.Theme = f.theme
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
