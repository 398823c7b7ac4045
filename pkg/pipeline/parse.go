package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/observability"
)

// Parse decodes a document and reports the event to the pipeline hooks.
func Parse(ctx context.Context, data []byte, format string) (graph.Document, error) {
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, format)
	start := time.Now()

	doc, err := graph.ParseDocument(data, format)
	leaves := 0
	if err == nil {
		leaves = len(doc.Identifiers(doc.DelimiterOr("")))
	}
	hooks.OnParseComplete(ctx, format, leaves, time.Since(start), err)
	if err != nil {
		return graph.Document{}, err
	}
	return doc, nil
}

// Delimiter returns the delimiter used to build doc's hierarchy: the
// document's own, then the option, then graph.DefaultDelimiter.
func Delimiter(doc graph.Document, opts Options) string {
	return doc.DelimiterOr(opts.Delimiter)
}

// Build constructs the hierarchy and relations of a parsed document.
func Build(doc graph.Document, opts Options) (*hierarchy.Tree, []bundle.Edge, error) {
	delim := Delimiter(doc, opts)
	t, err := hierarchy.Build(doc.Identifiers(delim), delim)
	if err != nil {
		return nil, nil, fmt.Errorf("build hierarchy: %w", err)
	}
	return t, doc.Relations(delim), nil
}
