package dsgraph

// DSNodeHandle is a reference-counted back-pointer into a DSNode at a
// specific offset in spec.md's prose (§3); per the re-architecture note of
// spec.md §9 we drop the refcount entirely — the owning DSGraph's node
// arena outlives every handle into it, so "unref on assign" is a no-op and
// there is nothing to free.
type DSNodeHandle struct {
	Node   *DSNode
	Offset int
}

// Resolve walks forward pointers left behind by merges (node.go) and
// returns the canonical (node, offset) pair. Every read of a handle's Node
// or Offset field outside this package should go through Resolve first.
func (h DSNodeHandle) Resolve() DSNodeHandle {
	n, off := h.Node, h.Offset
	for n != nil && n.forward != nil {
		off += n.forwardOffset
		n = n.forward
	}
	if n != nil && n.folded {
		off = 0
	}
	return DSNodeHandle{Node: n, Offset: off}
}

func (h DSNodeHandle) IsNull() bool { return h.Resolve().Node == nil }

// Fold collapses a node's offsets to zero (spec.md §3 "folding a node
// collapses its offsets to zero"), merging any edges that land on the same
// offset as a result.
func Fold(h DSNodeHandle) {
	r := h.Resolve()
	n := r.Node
	if n == nil || n.folded {
		return
	}
	n.folded = true
	for i := range n.TypeList {
		n.TypeList[i].Offset = 0
	}
	merged := make(map[int]DSNodeHandle)
	for _, target := range n.Edges {
		if existing, ok := merged[0]; ok {
			Merge(existing, target)
		} else {
			merged[0] = target
		}
	}
	n.Edges = merged
}
