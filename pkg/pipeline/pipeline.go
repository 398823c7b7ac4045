// Package pipeline provides the visualization pipeline shared by the CLI and
// the HTTP server.
//
// This package implements the complete parse → layout → render pipeline so
// that every entry point validates options, applies defaults and caches
// results in the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: decode a JSON, YAML or TOML document and build the hierarchy
//  2. Layout: compute coordinates and, for bundle views, the bundled curves
//  3. Render: draw the layout as SVG, PNG, PDF, DOT or JSON
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    VizType: "bundle",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, data, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Parse and lay out only
//	result, err := runner.ComputeLayout(ctx, data, opts)
//
//	// Render a saved layout
//	artifacts, err := runner.Render(ctx, layout, opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hierbundle/pkg/cache"
	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	apperrors "github.com/matzehuels/hierbundle/pkg/errors"
	"github.com/matzehuels/hierbundle/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 800.0

	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = 800.0

	// DefaultVizType is the default visualization type.
	DefaultVizType = graph.VizTypeBundle

	// DefaultTheme is the default colour theme.
	DefaultTheme = ThemeLight
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// ValidFormats lists the supported output formats.
var ValidFormats = []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT}

// ValidThemes lists the supported colour themes.
var ValidThemes = []string{ThemeLight, ThemeDark}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	Format    string `json:"format,omitempty"`    // Input document format (json, yaml, toml)
	Delimiter string `json:"delimiter,omitempty"` // Used when the document names none

	// Layout options
	VizType string   `json:"viz_type,omitempty"`
	Width   float64  `json:"width,omitempty"`
	Height  float64  `json:"height,omitempty"`
	Tension *float64 `json:"tension,omitempty"` // nil means bundle.DefaultTension
	Spline  string   `json:"spline,omitempty"`
	Lenient bool     `json:"lenient,omitempty"`
	Workers int      `json:"workers,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Theme   string   `json:"theme,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Document is the parsed input.
	Document graph.Document

	// Tree is the hierarchy built from the document.
	Tree *hierarchy.Tree

	// Edges are the document's relations.
	Edges []bundle.Edge

	// DocumentHash is the content hash of the normalized document.
	DocumentHash string

	// Layout is the serializable layout, including bundled curves.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LeafCount    int
	NodeCount    int
	Height       int
	EdgeCount    int
	CurveCount   int
	FailureCount int
	ParseTime    time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an output format is valid.
func ValidateFormat(format string) error {
	if !slices.Contains(ValidFormats, format) {
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateInputFormat checks that a document format is valid.
func ValidateInputFormat(format string) error {
	switch format {
	case graph.FormatJSON, graph.FormatYAML, graph.FormatTOML:
		return nil
	}
	return apperrors.New(apperrors.ErrCodeInvalidFormat, "invalid document format: %q (must be one of: json, yaml, toml)", format)
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !graph.ValidVizType(vizType) {
		return apperrors.New(apperrors.ErrCodeInvalidVizType, "invalid viz_type: %q (must be one of: bundle, tree, project, nodelink)", vizType)
	}
	return nil
}

// ValidateTheme checks that a theme is valid.
func ValidateTheme(theme string) error {
	if !slices.Contains(ValidThemes, theme) {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "invalid theme: %q (must be one of: light, dark)", theme)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults for the full
// pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse validates and sets defaults for parsing.
func (o *Options) ValidateForParse() error {
	if o.Format == "" {
		o.Format = graph.FormatJSON
	}
	if o.Format == "yml" {
		o.Format = graph.FormatYAML
	}
	if err := ValidateInputFormat(o.Format); err != nil {
		return err
	}
	if o.Delimiter != "" {
		if err := apperrors.ValidateDelimiter(o.Delimiter); err != nil {
			return err
		}
	}
	o.setLogger()
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := apperrors.ValidateDimensions(o.Width, o.Height); err != nil {
		return err
	}
	if o.Tension != nil {
		if err := apperrors.ValidateTension(*o.Tension); err != nil {
			return err
		}
	}
	s, err := apperrors.ValidateSpline(o.Spline)
	if err != nil {
		return err
	}
	o.Spline = string(s)
	if o.Workers < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "workers must not be negative")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateTheme(o.Theme)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// IsBundle returns true if this is a bundle visualization.
func (o *Options) IsBundle() bool {
	return o.VizType == "" || o.VizType == graph.VizTypeBundle
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == graph.VizTypeNodelink
}

// TensionOrDefault returns the bundling strength to use.
func (o *Options) TensionOrDefault() float64 {
	if o.Tension == nil {
		return bundle.DefaultTension
	}
	return *o.Tension
}

// BundleOptions converts the options into bundle.Bundle options.
func (o *Options) BundleOptions() []bundle.Option {
	opts := []bundle.Option{
		bundle.WithTension(o.TensionOrDefault()),
		bundle.WithSpline(bundle.Spline(o.Spline)),
	}
	if o.Lenient {
		opts = append(opts, bundle.Lenient())
	}
	if o.Workers > 0 {
		opts = append(opts, bundle.WithWorkers(o.Workers))
	}
	return opts
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		VizType:   o.VizType,
		Delimiter: o.Delimiter,
		Width:     o.Width,
		Height:    o.Height,
		Tension:   o.TensionOrDefault(),
		Spline:    o.Spline,
		Lenient:   o.Lenient,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Labels: o.Labels,
		Theme:  o.Theme,
	}
}

// Float returns a pointer to v, for setting Options.Tension.
func Float(v float64) *float64 { return &v }
