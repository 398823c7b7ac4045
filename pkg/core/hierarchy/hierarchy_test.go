package hierarchy

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func ids(t *testing.T, tr *Tree, p Path) []string {
	t.Helper()
	out := make([]string, len(p))
	for i, n := range p {
		out[i] = tr.MustNode(n).ID
	}
	return out
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		delim    string
		root     string
		nodes    int
		height   int
		children []string // IDs of root's children
	}{
		{
			name:     "SyntheticRoot",
			ids:      []string{"a/x", "a/y", "b/z"},
			delim:    "/",
			root:     "",
			nodes:    6,
			height:   2,
			children: []string{"a", "b"},
		},
		{
			name:     "SharedTopSegment",
			ids:      []string{"flare.vis.A", "flare.vis.B", "flare.util.C"},
			delim:    ".",
			root:     "flare",
			nodes:    6,
			height:   2,
			children: []string{"flare.vis", "flare.util"},
		},
		{
			name:     "SingleSegments",
			ids:      []string{"x", "y"},
			delim:    "/",
			root:     "",
			nodes:    3,
			height:   1,
			children: []string{"x", "y"},
		},
		{
			name:     "SingleLeaf",
			ids:      []string{"x"},
			delim:    "/",
			root:     "",
			nodes:    2,
			height:   1,
			children: []string{"x"},
		},
		{
			name:     "MultiCharDelimiter",
			ids:      []string{"a::b", "a::c::d"},
			delim:    "::",
			root:     "a",
			nodes:    4,
			height:   2,
			children: []string{"a::b", "a::c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Build(tt.ids, tt.delim)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			root := tr.MustNode(tr.Root())
			if root.ID != tt.root {
				t.Errorf("root = %q, want %q", root.ID, tt.root)
			}
			if root.Parent != NoNode {
				t.Errorf("root parent = %d, want NoNode", root.Parent)
			}
			if tr.Len() != tt.nodes {
				t.Errorf("Len() = %d, want %d", tr.Len(), tt.nodes)
			}
			if tr.Height() != tt.height {
				t.Errorf("Height() = %d, want %d", tr.Height(), tt.height)
			}
			if got := len(tr.Leaves()); got != len(tt.ids) {
				t.Errorf("leaf count = %d, want %d", got, len(tt.ids))
			}
			var got []string
			for _, c := range root.Children {
				got = append(got, tr.MustNode(c).ID)
			}
			if strings.Join(got, ",") != strings.Join(tt.children, ",") {
				t.Errorf("root children = %v, want %v", got, tt.children)
			}
		})
	}
}

func TestBuildPreservesInputOrder(t *testing.T) {
	in := []string{"b/z", "a/y", "b/a", "a/x"}
	tr, err := Build(in, "/")
	if err != nil {
		t.Fatal(err)
	}
	for i, leaf := range tr.Leaves() {
		if got := tr.MustNode(leaf).ID; got != in[i] {
			t.Errorf("Leaves()[%d] = %q, want %q", i, got, in[i])
		}
	}

	var order []string
	tr.Walk(func(_ NodeID, n Node) bool {
		order = append(order, n.ID)
		return true
	})
	want := []string{"", "b", "b/z", "b/a", "a", "a/y", "a/x"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("Walk order = %v, want %v", order, want)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		ids   []string
		delim string
		want  error
		bad   string
	}{
		{"Empty", []string{"a/x", ""}, "/", ErrMalformedIdentifier, ""},
		{"OnlyDelimiter", []string{"/"}, "/", ErrMalformedIdentifier, "/"},
		{"LeadingDelimiter", []string{"/a"}, "/", ErrMalformedIdentifier, "/a"},
		{"TrailingDelimiter", []string{"a/"}, "/", ErrMalformedIdentifier, "a/"},
		{"EmptySegment", []string{"a//b"}, "/", ErrMalformedIdentifier, "a//b"},
		{"ExactDuplicate", []string{"a/x", "a/x"}, "/", ErrDuplicateLeaf, "a/x"},
		{"LeafThenPrefix", []string{"a/x", "a/x/y"}, "/", ErrDuplicateLeaf, "a/x/y"},
		{"PrefixThenLeaf", []string{"a/x/y", "a/x"}, "/", ErrDuplicateLeaf, "a/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Build(tt.ids, tt.delim)
			if tr != nil {
				t.Error("expected no tree on error")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ie *IdentifierError
			if !errors.As(err, &ie) {
				t.Fatalf("err %T is not *IdentifierError", err)
			}
			if ie.ID != tt.bad {
				t.Errorf("IdentifierError.ID = %q, want %q", ie.ID, tt.bad)
			}
		})
	}

	t.Run("EmptyDelimiter", func(t *testing.T) {
		if _, err := Build([]string{"a"}, ""); !errors.Is(err, ErrInvalidDelimiter) {
			t.Errorf("err = %v, want ErrInvalidDelimiter", err)
		}
	})
	t.Run("NoIdentifiers", func(t *testing.T) {
		if _, err := Build(nil, "/"); !errors.Is(err, ErrNoIdentifiers) {
			t.Errorf("err = %v, want ErrNoIdentifiers", err)
		}
	})
}

func TestBuilderInsertIsAtomic(t *testing.T) {
	b := NewBuilder("/")
	if err := b.Insert("a/x"); err != nil {
		t.Fatal(err)
	}
	if err := b.Insert("a/x/y"); err == nil {
		t.Fatal("expected conflict")
	}
	if err := b.Insert("a/y"); err != nil {
		t.Fatal(err)
	}
	tr, err := b.Tree()
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 3 || b.Len() != 2 {
		t.Errorf("Len = %d nodes / %d leaves, want 3 / 2", tr.Len(), b.Len())
	}
}

func TestBuildSegments(t *testing.T) {
	tr, err := BuildSegments([][]string{{"a", "b.c"}, {"a", "d"}}, "/")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.Leaf("a/b.c"); !ok {
		t.Error("segment containing a dot should not be split")
	}
	if _, err := BuildSegments([][]string{{"a", ""}}, "/"); !errors.Is(err, ErrMalformedIdentifier) {
		t.Errorf("err = %v, want ErrMalformedIdentifier", err)
	}
}

func TestLeafLookup(t *testing.T) {
	tr, err := Build([]string{"a/x", "a/y", "b/z"}, "/")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tr.Leaf("a"); ok {
		t.Error("Leaf(group) should fail")
	}
	if _, ok := tr.Lookup("a"); !ok {
		t.Error("Lookup(group) should succeed")
	}
	if _, ok := tr.Leaf("c/w"); ok {
		t.Error("Leaf(unknown) should fail")
	}
	if got := tr.LeafCount(tr.Root()); got != 3 {
		t.Errorf("LeafCount(root) = %d, want 3", got)
	}
}

func TestAncestorPath(t *testing.T) {
	tr, err := Build([]string{"a/x", "a/y", "b/z", "b/c/d/e"}, "/")
	if err != nil {
		t.Fatal(err)
	}
	for _, leaf := range tr.Leaves() {
		n := tr.MustNode(leaf)
		t.Run(n.ID, func(t *testing.T) {
			p, err := tr.AncestorPath(leaf)
			if err != nil {
				t.Fatal(err)
			}
			if p[0] != tr.Root() {
				t.Errorf("path starts at %d, want root", p[0])
			}
			if p.Last() != leaf {
				t.Errorf("path ends at %d, want %d", p.Last(), leaf)
			}
			if len(p) != n.Depth+1 {
				t.Errorf("len = %d, want depth+1 = %d", len(p), n.Depth+1)
			}
		})
	}

	leaf, _ := tr.Leaf("b/c/d/e")
	p, _ := tr.AncestorPath(leaf)
	want := []string{"", "b", "b/c", "b/c/d", "b/c/d/e"}
	if got := ids(t, tr, p); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestAncestorPathCached(t *testing.T) {
	tr, _ := Build([]string{"a/x"}, "/")
	leaf := tr.Leaves()[0]
	p1, _ := tr.AncestorPath(leaf)
	p2, _ := tr.AncestorPath(leaf)
	if &p1[0] != &p2[0] {
		t.Error("expected cached path to be reused")
	}
}

func TestAncestorPathDetached(t *testing.T) {
	tr, err := Build([]string{"a/x", "a/y"}, "/")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tr.AncestorPath(NodeID(tr.Len() + 5)); !errors.Is(err, ErrDetachedNode) {
		t.Errorf("out of range: err = %v, want ErrDetachedNode", err)
	}

	// Corrupt the arena into a cycle between the two leaves.
	x, _ := tr.Leaf("a/x")
	y, _ := tr.Leaf("a/y")
	tr.nodes[x].Parent = y
	tr.nodes[y].Parent = x
	_, err = tr.AncestorPath(x)
	if !errors.Is(err, ErrDetachedNode) {
		t.Fatalf("cycle: err = %v, want ErrDetachedNode", err)
	}
	var ne *NodeError
	if !errors.As(err, &ne) || ne.Node != x {
		t.Errorf("NodeError = %v, want node %d", err, x)
	}
}

func TestLCA(t *testing.T) {
	tr, err := Build([]string{"a/x", "a/y", "b/z"}, "/")
	if err != nil {
		t.Fatal(err)
	}
	path := func(id string) Path {
		n, ok := tr.Leaf(id)
		if !ok {
			t.Fatalf("unknown leaf %q", id)
		}
		p, err := tr.AncestorPath(n)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		a, b   string
		lca    string
		common int
	}{
		{"a/x", "a/y", "a", 2},
		{"a/x", "b/z", "", 1},
		{"a/x", "a/x", "a/x", 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%s", tt.a, tt.b), func(t *testing.T) {
			lca, n := LCA(path(tt.a), path(tt.b))
			if got := tr.MustNode(lca).ID; got != tt.lca {
				t.Errorf("LCA = %q, want %q", got, tt.lca)
			}
			if n != tt.common {
				t.Errorf("common = %d, want %d", n, tt.common)
			}
			lca2, n2 := LCA(path(tt.b), path(tt.a))
			if lca2 != lca || n2 != n {
				t.Error("LCA is not symmetric")
			}
		})
	}

	if lca, n := LCA(nil, Path{1}); lca != NoNode || n != 0 {
		t.Errorf("LCA(nil) = %d, %d", lca, n)
	}
}

func TestAncestorPathConcurrent(t *testing.T) {
	var in []string
	for i := 0; i < 50; i++ {
		in = append(in, fmt.Sprintf("g%d/s%d/leaf%d", i%5, i%3, i))
	}
	tr, err := Build(in, "/")
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, leaf := range tr.Leaves() {
				if _, err := tr.AncestorPath(leaf); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
