package hierarchy

// Path is an ancestor path: node indices from the root to a node, inclusive.
type Path []NodeID

// Last returns the final node of the path, or NoNode for an empty path.
func (p Path) Last() NodeID {
	if len(p) == 0 {
		return NoNode
	}
	return p[len(p)-1]
}

// AncestorPath returns the path from the root to id. The first element is
// always the root and the last is id itself.
//
// Paths are cached per node; the returned slice is shared and must not be
// modified. ErrDetachedNode is returned when the parent chain does not reach
// the root within Height()+1 steps.
func (t *Tree) AncestorPath(id NodeID) (Path, error) {
	t.mu.Lock()
	p, ok := t.paths[id]
	t.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := t.resolve(id)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if t.paths == nil {
		t.paths = make(map[NodeID]Path)
	}
	t.paths[id] = p
	t.mu.Unlock()
	return p, nil
}

func (t *Tree) resolve(id NodeID) (Path, error) {
	bound := t.height + 1
	rev := make(Path, 0, bound)
	cur := id
	for steps := 0; ; steps++ {
		if steps >= bound {
			return nil, &NodeError{Node: id, Err: ErrDetachedNode}
		}
		if cur < 0 || int(cur) >= len(t.nodes) {
			return nil, &NodeError{Node: id, Err: ErrDetachedNode}
		}
		rev = append(rev, cur)
		if cur == t.root {
			break
		}
		cur = t.nodes[cur].Parent
	}

	p := make(Path, len(rev))
	for i, n := range rev {
		p[len(rev)-1-i] = n
	}
	return p, nil
}

// LCA returns the lowest common ancestor of two ancestor paths and the
// length of their common prefix. Paths from the same tree always share at
// least the root; NoNode and 0 are returned otherwise.
func LCA(a, b Path) (NodeID, int) {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	if n == 0 {
		return NoNode, 0
	}
	return a[n-1], n
}
