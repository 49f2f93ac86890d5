package dsgraph

// CloneFlags selects which parts of a cloned node's state are dropped
// (spec.md §4.6 "Clone semantics": a clone used purely to unify formals
// with actuals does not need the callee's own global or alloca markings to
// survive into the caller's graph).
type CloneFlags struct {
	StripAllocas bool
	StripGlobals bool
}

// cloneResult maps every node of the source graph to its freshly allocated
// copy in the destination graph, so callers can remap any handle captured
// before the clone (spec.md §9 "cloning becomes a node-map copy, not a deep
// pointer-graph walk").
type cloneResult struct {
	nodeMap map[*DSNode]*DSNode
}

func (c *cloneResult) remap(h DSNodeHandle) DSNodeHandle {
	r := h.Resolve()
	if r.Node == nil {
		return DSNodeHandle{}
	}
	nn, ok := c.nodeMap[r.Node]
	if !ok {
		return DSNodeHandle{}
	}
	return DSNodeHandle{Node: nn, Offset: r.Offset}
}

// CloneInto copies every node of src into dst's arena, preserving edges and
// (subject to flags) type lists, flags and globals, and returns the
// resulting node map (spec.md §4.6 "Clone semantics").
func CloneInto(dst *Graph, src *Graph, flags CloneFlags) *cloneResult {
	cr := &cloneResult{nodeMap: make(map[*DSNode]*DSNode, len(src.Nodes))}

	for _, n := range src.Nodes {
		if n.forward != nil {
			continue // merged-away node; its canonical target is cloned instead
		}
		nn := dst.newNode()
		nn.folded = n.folded
		nn.Flags = n.Flags
		if flags.StripAllocas {
			nn.Flags &^= FlagAlloca
		}
		if !flags.StripGlobals {
			nn.Globals = append(nn.Globals, n.Globals...)
		}
		for _, ft := range n.TypeList {
			nn.addType(ft.Offset, ft.Type)
		}
		cr.nodeMap[n] = nn
	}

	for _, n := range src.Nodes {
		nn, ok := cr.nodeMap[n]
		if !ok {
			continue
		}
		for off, target := range n.Edges {
			nn.Edges[off] = cr.remap(target)
		}
	}

	return cr
}
