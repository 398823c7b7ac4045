package hierarchy

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrMalformedIdentifier is returned when an identifier is empty,
	// consists only of delimiters, or contains an empty segment.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrDuplicateLeaf is returned when the same full path is inserted twice,
	// or when a path is used both as a leaf and as the prefix of another
	// identifier.
	ErrDuplicateLeaf = errors.New("duplicate leaf")

	// ErrDetachedNode is returned by [Tree.AncestorPath] when the parent
	// chain does not reach the root within the tree's height.
	ErrDetachedNode = errors.New("detached node")

	// ErrInvalidDelimiter is returned when the delimiter is empty.
	ErrInvalidDelimiter = errors.New("delimiter must not be empty")

	// ErrNoIdentifiers is returned when building from an empty input.
	ErrNoIdentifiers = errors.New("no identifiers")
)

// IdentifierError reports a problem with one input identifier.
type IdentifierError struct {
	ID  string
	Err error
}

func (e *IdentifierError) Error() string { return fmt.Sprintf("%v: %q", e.Err, e.ID) }
func (e *IdentifierError) Unwrap() error { return e.Err }

// NodeError reports a problem with a node of a built tree.
type NodeError struct {
	Node NodeID
	Err  error
}

func (e *NodeError) Error() string { return fmt.Sprintf("%v: node %d", e.Err, e.Node) }
func (e *NodeError) Unwrap() error { return e.Err }

// NodeID indexes a node in a tree's arena.
type NodeID int32

// NoNode is the parent of the root.
const NoNode NodeID = -1

// Kind distinguishes groups (interior nodes) from leaves.
type Kind int

const (
	// KindGroup is an interior node created for a shared path prefix.
	KindGroup Kind = iota
	// KindLeaf is a terminal node created for an input identifier.
	KindLeaf
)

func (k Kind) String() string {
	if k == KindLeaf {
		return "leaf"
	}
	return "group"
}

// Node is one vertex of the hierarchy.
type Node struct {
	ID       string   // Full identifier; "" for a synthetic root
	Name     string   // Last segment of ID
	Kind     Kind     // Group or leaf
	Parent   NodeID   // NoNode for the root
	Children []NodeID // Insertion order; empty for leaves
	Depth    int      // 0 for the root
}

// IsLeaf reports whether n is a leaf.
func (n Node) IsLeaf() bool { return n.Kind == KindLeaf }

// Tree is an immutable hierarchy stored in a flat arena.
//
// The zero value is not usable; obtain a Tree from [Build], [BuildSegments]
// or [Builder.Tree].
type Tree struct {
	nodes     []Node
	root      NodeID
	delimiter string
	byID      map[string]NodeID
	leaves    []NodeID
	height    int

	mu    sync.Mutex
	paths map[NodeID]Path
}

// Root returns the root node's index.
func (t *Tree) Root() NodeID { return t.root }

// Delimiter returns the delimiter the tree was built with.
func (t *Tree) Delimiter() string { return t.delimiter }

// Len returns the number of nodes, groups and leaves alike.
func (t *Tree) Len() int { return len(t.nodes) }

// Height returns the depth of the deepest node.
func (t *Tree) Height() int { return t.height }

// Node returns the node at id. The second result is false when id is outside
// the arena.
func (t *Tree) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[id], true
}

// MustNode is like Node but panics on an invalid index. It is meant for
// indices obtained from the same tree.
func (t *Tree) MustNode(id NodeID) Node {
	n, ok := t.Node(id)
	if !ok {
		panic(fmt.Sprintf("hierarchy: node %d out of range", id))
	}
	return n
}

// Lookup returns the index of the node with the given full identifier,
// group or leaf.
func (t *Tree) Lookup(id string) (NodeID, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Leaf returns the index of the leaf with the given identifier. Groups are
// not returned.
func (t *Tree) Leaf(id string) (NodeID, bool) {
	n, ok := t.byID[id]
	if !ok || t.nodes[n].Kind != KindLeaf {
		return NoNode, false
	}
	return n, true
}

// Leaves returns leaf indices in input order. The returned slice must not be
// modified.
func (t *Tree) Leaves() []NodeID { return t.leaves }

// Children returns the children of id in insertion order.
func (t *Tree) Children(id NodeID) []NodeID {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	return n.Children
}

// Walk visits every node in pre-order starting at the root, children in
// insertion order. Returning false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(id NodeID, n Node) bool) {
	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[id]
		if !fn(id, n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// LeafCount returns the number of leaves under id (1 for a leaf).
func (t *Tree) LeafCount(id NodeID) int {
	count := 0
	t.walkFrom(id, func(n Node) {
		if n.Kind == KindLeaf {
			count++
		}
	})
	return count
}

func (t *Tree) walkFrom(id NodeID, fn func(Node)) {
	if _, ok := t.Node(id); !ok {
		return
	}
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[cur]
		fn(n)
		stack = append(stack, n.Children...)
	}
}
