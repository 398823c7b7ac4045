package cli

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hierbundle/pkg/core/bundle"
	"github.com/matzehuels/hierbundle/pkg/core/hierarchy"
	"github.com/matzehuels/hierbundle/pkg/core/render/layout"
	"github.com/matzehuels/hierbundle/pkg/graph"
	"github.com/matzehuels/hierbundle/pkg/pipeline"
)

// tensionStep is how much +/- change the bundling strength.
const tensionStep = 0.05

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// exploreCommand creates the explore command, an interactive browser over a
// document's leaves and the routes of their edges.
func (c *CLI) exploreCommand() *cobra.Command {
	var inputFormat string

	cmd := &cobra.Command{
		Use:   "explore [document]",
		Short: "Browse leaves, ancestor paths and edge routes interactively",
		Args:  cobra.ExactArgs(1),
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
			m, err := c.loadExplore(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "document format: json, yaml, toml (default: from file extension)")
	cmd.Flags().String("delimiter", "", "identifier delimiter when the document names none")
	cmd.Flags().Float64("tension", 0, "initial bundling strength in [0, 1]")
	cmd.Flags().String("spline", "", "curve spline: catmull-rom (default), basis")

	return cmd
}

func (c *CLI) loadExplore(ctx context.Context, input string, opts pipeline.Options) (*ExploreModel, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForLayout(); err != nil {
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
	return NewExploreModel(t, edges, opts.TensionOrDefault(), bundle.Spline(opts.Spline))
}

// =============================================================================
// ExploreModel - Interactive leaf browser
// =============================================================================

// ExploreModel is the bubbletea model behind the explore command.
type ExploreModel struct {
	tree    *hierarchy.Tree
	coords  layout.Coordinates
	edges   []bundle.Edge
	byLeaf  map[string][]int
	leaves  []string
	tension float64
	spline  bundle.Spline

	Cursor int
	Offset int
	Height int

	// Selection state, recomputed when the cursor or parameters change.
	selected []bundle.Edge
	result   *bundle.Result
}

// NewExploreModel lays t out radially and prepares the browser.
func NewExploreModel(t *hierarchy.Tree, edges []bundle.Edge, tension float64, spline bundle.Spline) (*ExploreModel, error) {
	coords, err := layout.Radial{}.Layout(t)
	if err != nil {
		return nil, err
	}
	m := &ExploreModel{
		tree:    t,
		coords:  coords,
		edges:   edges,
		byLeaf:  make(map[string][]int),
		tension: tension,
		spline:  spline,
		Height:  15,
	}
	for _, id := range t.Leaves() {
		m.leaves = append(m.leaves, t.MustNode(id).ID)
	}
	for i, e := range edges {
		m.byLeaf[e.Source] = append(m.byLeaf[e.Source], i)
		if e.Target != e.Source {
			m.byLeaf[e.Target] = append(m.byLeaf[e.Target], i)
		}
	}
	m.rebundle()
	return m, nil
}

// Tension returns the current bundling strength.
func (m *ExploreModel) Tension() float64 { return m.tension }

// Selected returns the identifier of the leaf under the cursor.
func (m *ExploreModel) Selected() string {
	if len(m.leaves) == 0 {
		return ""
	}
	return m.leaves[m.Cursor]
}

// rebundle recomputes the curves of the selected leaf's edges. Edges naming
// unknown leaves end up as failures.
func (m *ExploreModel) rebundle() {
	m.selected = m.selected[:0]
	for _, i := range m.byLeaf[m.Selected()] {
		m.selected = append(m.selected, m.edges[i])
	}
	m.result, _ = bundle.Bundle(m.tree, m.coords, m.selected,
		bundle.WithTension(m.tension), bundle.WithSpline(m.spline), bundle.Lenient())
}

func (m *ExploreModel) Init() tea.Cmd {
	return nil
}

func (m *ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
				m.rebundle()
			}
		case "down", "j":
			if m.Cursor < len(m.leaves)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
				m.rebundle()
			}
		case "+", "=":
			m.tension = math.Min(1, roundStep(m.tension+tensionStep))
			m.rebundle()
		case "-", "_":
			m.tension = math.Max(0, roundStep(m.tension-tensionStep))
			m.rebundle()
		case "s":
			if m.spline == bundle.SplineBasis {
				m.spline = bundle.SplineCatmullRom
			} else {
				m.spline = bundle.SplineBasis
			}
			m.rebundle()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

// roundStep removes float drift so repeated steps land on 0.05 multiples.
func roundStep(v float64) float64 {
	return math.Round(v/tensionStep) * tensionStep
}

func (m *ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore hierarchy"))
	b.WriteString("  ")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("tension %.2f · %s", m.tension, m.spline)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  +/- tension  s spline  q quit"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.leafList()),
		" ",
		panelStyle.Render(m.details()),
	))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.leaves))))
	return b.String()
}

func (m *ExploreModel) leafList() string {
	var b strings.Builder
	end := min(m.Offset+m.Height, len(m.leaves))
	for i := m.Offset; i < end; i++ {
		id := m.leaves[i]
		line := fmt.Sprintf("  %s %s", id, listDimStyle.Render(fmt.Sprintf("(%d)", len(m.byLeaf[id]))))
		if i == m.Cursor {
			line = listSelectedStyle.Render("▸ " + id)
		} else if len(m.byLeaf[id]) == 0 {
			line = listDimStyle.Render("  " + id)
		} else {
			line = listNormalStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *ExploreModel) details() string {
	sel := m.Selected()
	if sel == "" {
		return listDimStyle.Render("no leaves")
	}
	var b strings.Builder

	id, _ := m.tree.Leaf(sel)
	path, err := m.tree.AncestorPath(id)
	b.WriteString(StyleHighlight.Render("Path"))
	b.WriteString("\n  ")
	if err != nil {
		b.WriteString(StyleWarning.Render(err.Error()))
	} else {
		b.WriteString(m.routeString(path))
	}
	b.WriteString("\n\n")

	b.WriteString(StyleHighlight.Render(fmt.Sprintf("Edges (%d)", len(m.selected))))
	b.WriteString("\n")
	if m.result == nil {
		return b.String()
	}
	for _, c := range m.result.Curves {
		other := c.Edge.Target
		arrow := "→"
		if other == sel {
			other, arrow = c.Edge.Source, "←"
		}
		if !c.Edge.Directed {
			arrow = "↔"
		}
		fmt.Fprintf(&b, "  %s %s %s\n", arrow, StyleValue.Render(other),
			listDimStyle.Render(fmt.Sprintf("len %.1f", curveLength(c))))
		fmt.Fprintf(&b, "    %s\n", listDimStyle.Render("via "+m.routeString(c.Route)))
	}
	for _, f := range m.result.Failures {
		fmt.Fprintf(&b, "  %s %s\n", StyleWarning.Render(iconWarning), StyleWarning.Render(f.Err.Error()))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m *ExploreModel) routeString(route []hierarchy.NodeID) string {
	names := make([]string, len(route))
	for i, id := range route {
		n := m.tree.MustNode(id)
		names[i] = n.ID
		if n.ID == "" {
			names[i] = "(root)"
		}
	}
	return strings.Join(names, " › ")
}

// curveLength approximates the drawn length of c; it shrinks as tension
// falls and curves straighten towards their chord.
func curveLength(c bundle.Curve) float64 {
	pts := c.Sample(64)
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Dist(pts[i])
	}
	return total
}
