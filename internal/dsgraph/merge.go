package dsgraph

// Merge unifies the nodes referenced by a and b so that a.Offset in a.Node
// and b.Offset in b.Node denote the same storage (spec.md §3: "Merging two
// handles merges their nodes and composes offsets"). If unification would
// require a node to represent two different fixed offsets for what must be
// the same location, the node is folded instead (spec.md §7 "DS-graph
// unification clash ... handled by folding both to a single zero-offset
// node").
func Merge(a, b DSNodeHandle) {
	ra, rb := a.Resolve(), b.Resolve()
	if ra.Node == nil || rb.Node == nil {
		return
	}
	if ra.Node == rb.Node {
		if ra.Offset != rb.Offset {
			Fold(ra)
		}
		return
	}

	shift := ra.Offset - rb.Offset
	dst, src := ra.Node, rb.Node

	if dst.folded || src.folded {
		Fold(DSNodeHandle{Node: dst})
		Fold(DSNodeHandle{Node: src})
		shift = 0
	}

	// Move src's content into dst, offset by shift.
	for _, ft := range src.TypeList {
		dst.addType(ft.Offset+shift, ft.Type)
	}
	dst.Flags |= src.Flags
	for _, g := range src.Globals {
		dst.addGlobal(g)
	}

	// Re-home src's edges under dst, merging on collision.
	srcEdges := src.Edges
	src.Edges = nil
	for off, target := range srcEdges {
		newOff := off + shift
		if existing, ok := dst.Edges[newOff]; ok {
			Merge(existing, target)
		} else {
			dst.Edges[newOff] = target
		}
	}

	src.forward = dst
	src.forwardOffset = shift
}

// getEdge returns the handle stored at offset inside h's node, creating a
// fresh node and installing it as that edge if none exists yet (spec.md
// §4.6 "create a DS-node for each allocation ... merge nodes on every
// assignment").
func getEdge(g *Graph, h DSNodeHandle, offset int) DSNodeHandle {
	r := h.Resolve()
	if r.Node == nil {
		return DSNodeHandle{}
	}
	total := r.Offset + offset
	if r.Node.folded {
		total = 0
	}
	if existing, ok := r.Node.Edges[total]; ok {
		return existing.Resolve()
	}
	n := g.newNode()
	handle := DSNodeHandle{Node: n, Offset: 0}
	r.Node.Edges[total] = handle
	return handle
}
