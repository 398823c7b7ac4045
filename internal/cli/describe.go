package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// topGroups is how many of the busiest groups the report lists.
const topGroups = 5

// describeCommand creates the describe command, a terminal report on a
// document's hierarchy and how its edges bundle.
func (c *CLI) describeCommand() *cobra.Command {
	var (
		inputFormat string
		plain       bool
		width       int
	)

	cmd := &cobra.Command{
		Use:   "describe [document]",
		Short: "Summarize a document's hierarchy and bundling",
		Long: `Summarize a document's hierarchy and bundling.

The report lists node, leaf and edge counts, the tree height, a histogram of
the depth at which edges meet (their lowest common ancestor) and the groups
that carry the most bundled edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := cfg.LayoutOptions()
			opts.Format = inputFormat
			if opts.Format == "" {
				opts.Format = graph.FormatFromPath(args[0])
			}

			r, err := c.describe(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			md := r.Markdown()
			if plain {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			renderer, err := glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(width),
			)
			if err != nil {
				return fmt.Errorf("markdown renderer: %w", err)
			}
			out, err := renderer.Render(md)
			if err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "document format: json, yaml, toml (default: from file extension)")
	cmd.Flags().String("delimiter", "", "identifier delimiter when the document names none")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the raw markdown")
	cmd.Flags().IntVar(&width, "wrap", 80, "word wrap width")

	return cmd
}

func (c *CLI) describe(ctx context.Context, input string, opts pipeline.Options) (*report, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	doc, err := pipeline.Parse(ctx, data, opts.Format)
	if err != nil {
		return nil, err
	}
	t, edges, err := pipeline.Build(doc, opts)
	if err != nil {
		return nil, err
	}
	r := analyze(t, edges)
	r.Title = input
	return r, nil
}

// report summarizes a hierarchy and the routes of its edges.
type report struct {
	Title     string
	Nodes     int
	Leaves    int
	Edges     int
	SelfLoops int
	Height    int
	Delimiter string

	// LCADepth counts routed edges by the depth of their lowest common
	// ancestor.
	LCADepth map[int]int
	// Busiest lists the groups most routes pass through, busiest first.
	Busiest []groupLoad
	// Unresolved lists edges that name an unknown leaf.
	Unresolved []string
}

type groupLoad struct {
	ID    string
	Depth int
	Count int
}

// analyze routes every edge through t without laying anything out.
func analyze(t *hierarchy.Tree, edges []bundle.Edge) *report {
	r := &report{
		Nodes:     t.Len(),
		Leaves:    len(t.Leaves()),
		Edges:     len(edges),
		Height:    t.Height(),
		Delimiter: t.Delimiter(),
		LCADepth:  make(map[int]int),
	}

	through := make(map[hierarchy.NodeID]int)
	for _, e := range edges {
		route, lca, err := bundle.Route(t, e.Source, e.Target)
		if err != nil {
			msg := err.Error()
			var ee *bundle.EdgeError
			if errors.As(err, &ee) {
				msg = fmt.Sprintf("%v %q", ee.Err, ee.Node)
			}
			r.Unresolved = append(r.Unresolved, fmt.Sprintf("%s → %s: %s", e.Source, e.Target, msg))
			continue
		}
		if e.IsSelfLoop() {
			r.SelfLoops++
			continue
		}
		r.LCADepth[t.MustNode(lca).Depth]++
		for _, id := range route[1 : len(route)-1] {
			through[id]++
		}
	}

	for id, n := range through {
		node := t.MustNode(id)
		r.Busiest = append(r.Busiest, groupLoad{ID: node.ID, Depth: node.Depth, Count: n})
	}
	sort.Slice(r.Busiest, func(i, j int) bool {
		a, b := r.Busiest[i], r.Busiest[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ID < b.ID
	})
	if len(r.Busiest) > topGroups {
		r.Busiest = r.Busiest[:topGroups]
	}
	return r
}

// Markdown renders the report.
func (r *report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)

	b.WriteString("| | |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Nodes | %d |\n", r.Nodes)
	fmt.Fprintf(&b, "| Leaves | %d |\n", r.Leaves)
	fmt.Fprintf(&b, "| Groups | %d |\n", r.Nodes-r.Leaves)
	fmt.Fprintf(&b, "| Edges | %d |\n", r.Edges)
	if r.SelfLoops > 0 {
		fmt.Fprintf(&b, "| Self-loops | %d |\n", r.SelfLoops)
	}
	fmt.Fprintf(&b, "| Height | %d |\n", r.Height)
	fmt.Fprintf(&b, "| Delimiter | `%s` |\n\n", r.Delimiter)

	if len(r.LCADepth) > 0 {
		b.WriteString("## Where edges meet\n\n")
		b.WriteString("| LCA depth | Edges | |\n|---:|---:|---|\n")
		depths := make([]int, 0, len(r.LCADepth))
		peak := 0
		for d, n := range r.LCADepth {
			depths = append(depths, d)
			peak = max(peak, n)
		}
		sort.Ints(depths)
		for _, d := range depths {
			n := r.LCADepth[d]
			bar := strings.Repeat("█", max(1, n*20/peak))
			fmt.Fprintf(&b, "| %d | %d | %s |\n", d, n, bar)
		}
		b.WriteString("\n")
	}

	if len(r.Busiest) > 0 {
		b.WriteString("## Most bundled groups\n\n")
		b.WriteString("| Group | Depth | Routes |\n|---|---:|---:|\n")
		for _, g := range r.Busiest {
			name := g.ID
			if name == "" {
				name = "(root)"
			}
			fmt.Fprintf(&b, "| `%s` | %d | %d |\n", name, g.Depth, g.Count)
		}
		b.WriteString("\n")
	}

	if len(r.Unresolved) > 0 {
		b.WriteString("## Unresolved edges\n\n")
		for _, u := range r.Unresolved {
			fmt.Fprintf(&b, "- %s\n", u)
		}
		b.WriteString("\n")
	}
	return b.String()
}
