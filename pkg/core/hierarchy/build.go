package hierarchy

import (
	"strings"
)

// Build constructs a tree from delimited identifiers. Identifiers are
// inserted in order; that order is preserved for leaves and for the
// children of every group.
//
// No tree is returned when any identifier is malformed or conflicts with an
// earlier one.
func Build(ids []string, delimiter string) (*Tree, error) {
	b := NewBuilder(delimiter)
	for _, id := range ids {
		if err := b.Insert(id); err != nil {
			return nil, err
		}
	}
	return b.Tree()
}

// BuildSegments is like [Build] for callers that already hold split
// identifiers. The delimiter is only used to form each node's full ID.
func BuildSegments(segments [][]string, delimiter string) (*Tree, error) {
	b := NewBuilder(delimiter)
	for _, segs := range segments {
		if err := b.InsertSegments(segs); err != nil {
			return nil, err
		}
	}
	return b.Tree()
}

// Builder inserts identifiers one at a time into a trie and produces an
// immutable [Tree]. The zero value is not usable; call [NewBuilder].
type Builder struct {
	delim  string
	nodes  []trieNode // nodes[0] is the provisional root
	leaves []int
}

type trieNode struct {
	name     string
	leaf     bool
	parent   int
	children []int
	index    map[string]int
}

// NewBuilder returns an empty builder splitting identifiers on delimiter.
func NewBuilder(delimiter string) *Builder {
	return &Builder{
		delim: delimiter,
		nodes: []trieNode{{parent: -1, index: map[string]int{}}},
	}
}

// Len returns the number of leaves inserted so far.
func (b *Builder) Len() int { return len(b.leaves) }

// Insert splits id on the builder's delimiter and inserts it. A failed
// insert leaves the builder unchanged.
func (b *Builder) Insert(id string) error {
	if b.delim == "" {
		return ErrInvalidDelimiter
	}
	segs := strings.Split(id, b.delim)
	if err := checkSegments(segs); err != nil {
		return &IdentifierError{ID: id, Err: err}
	}
	return b.insert(id, segs)
}

// InsertSegments inserts an identifier that has already been split.
func (b *Builder) InsertSegments(segs []string) error {
	if b.delim == "" {
		return ErrInvalidDelimiter
	}
	id := strings.Join(segs, b.delim)
	if err := checkSegments(segs); err != nil {
		return &IdentifierError{ID: id, Err: err}
	}
	return b.insert(id, segs)
}

func checkSegments(segs []string) error {
	if len(segs) == 0 {
		return ErrMalformedIdentifier
	}
	for _, s := range segs {
		if s == "" {
			return ErrMalformedIdentifier
		}
	}
	return nil
}

// insert walks the trie along segs. Conflicts are detected before any node
// is created: a walk only creates groups below the point where it leaves
// existing structure, and fresh groups cannot conflict.
func (b *Builder) insert(id string, segs []string) error {
	cur := 0
	last := len(segs) - 1
	for i, seg := range segs {
		next, ok := b.nodes[cur].index[seg]
		switch {
		case ok && i == last:
			// Either the same leaf twice or a group now named as a leaf.
			return &IdentifierError{ID: id, Err: ErrDuplicateLeaf}
		case ok && b.nodes[next].leaf:
			// An existing leaf would become a group prefix.
			return &IdentifierError{ID: id, Err: ErrDuplicateLeaf}
		case ok:
			cur = next
		default:
			next = b.add(cur, seg, i == last)
			cur = next
		}
	}
	b.leaves = append(b.leaves, cur)
	return nil
}

func (b *Builder) add(parent int, name string, leaf bool) int {
	idx := len(b.nodes)
	n := trieNode{name: name, leaf: leaf, parent: parent}
	if !leaf {
		n.index = map[string]int{}
	}
	b.nodes = append(b.nodes, n)
	p := &b.nodes[parent]
	p.children = append(p.children, idx)
	p.index[name] = idx
	return idx
}

// Tree freezes the inserted identifiers into a [Tree]. The builder may keep
// being used afterwards; later trees include earlier inserts.
func (b *Builder) Tree() (*Tree, error) {
	if b.delim == "" {
		return nil, ErrInvalidDelimiter
	}
	if len(b.leaves) == 0 {
		return nil, ErrNoIdentifiers
	}

	// A single top-level group shared by every identifier becomes the root.
	root := 0
	if top := b.nodes[0].children; len(top) == 1 && !b.nodes[top[0]].leaf {
		root = top[0]
	}

	t := &Tree{
		delimiter: b.delim,
		byID:      make(map[string]NodeID, len(b.nodes)),
		paths:     make(map[NodeID]Path),
	}
	remap := make(map[int]NodeID, len(b.nodes))

	var visit func(old int, parent NodeID, prefix string, depth int)
	visit = func(old int, parent NodeID, prefix string, depth int) {
		tn := b.nodes[old]
		id := tn.name
		if prefix != "" {
			id = prefix + b.delim + tn.name
		}
		kind := KindGroup
		if tn.leaf {
			kind = KindLeaf
		}
		self := NodeID(len(t.nodes))
		t.nodes = append(t.nodes, Node{
			ID:     id,
			Name:   tn.name,
			Kind:   kind,
			Parent: parent,
			Depth:  depth,
		})
		remap[old] = self
		t.byID[id] = self
		if depth > t.height {
			t.height = depth
		}
		if len(tn.children) == 0 {
			return
		}
		children := make([]NodeID, 0, len(tn.children))
		for _, c := range tn.children {
			children = append(children, NodeID(len(t.nodes)))
			visit(c, self, id, depth+1)
		}
		t.nodes[self].Children = children
	}
	visit(root, NoNode, "", 0)
	t.root = remap[root]

	// The synthetic root is not a real identifier; keep it out of lookups.
	if root == 0 {
		delete(t.byID, "")
	}

	t.leaves = make([]NodeID, len(b.leaves))
	for i, old := range b.leaves {
		t.leaves[i] = remap[old]
	}
	return t, nil
}
