// Package dsgraph is the context-sensitive data-structure (points-to) graph
// of spec.md §1 component C3: a local graph per function, merged bottom-up
// across the call graph to supply may-alias information to the rest of the
// core. Nodes live in an arena owned by the DSGraph (spec.md §9 "Replace
// raw pointer graphs with back-pointers ... with an arena + index pattern");
// a DSNode is addressed by the *DSNode pointer into that arena, which is
// stable for the graph's lifetime, and DSGraph.Nodes is the arena itself.
package dsgraph

import "github.com/kestrelcc/kestrel/internal/ir"

// NodeFlags is the flag-set of spec.md §3 "DS-node": {alloca, heap, global,
// unknown, incomplete, modified, read}.
type NodeFlags uint8

const (
	FlagAlloca NodeFlags = 1 << iota
	FlagHeap
	FlagGlobal
	FlagUnknown
	FlagIncomplete
	FlagModified
	FlagRead
)

func (f NodeFlags) Has(bit NodeFlags) bool { return f&bit != 0 }

// FieldType is one offset-sorted record of spec.md §3's DS-node "type
// list": the type observed at a given byte offset inside the node.
type FieldType struct {
	Offset int
	Type   *ir.Type
}

// DSNode is a points-to node: a type list, a flag-set, a globals list and
// an edge map from offset to (node, offset) (spec.md §3 "DS-node").
//
// A node that has been merged away is represented in place, not removed
// from the arena (spec.md §9: cloning/merging become index remaps): its
// forward field points at the node it now aliases, with forwardOffset the
// additive shift to apply. DSNodeHandle.Resolve always walks forward
// pointers, so merging two handles is a local mutation, never a pointer
// rewrite across the whole graph (spec.md §9 "Reference-counted handles").
type DSNode struct {
	index int

	TypeList []FieldType
	Flags    NodeFlags
	Globals  []*ir.Value
	Edges    map[int]DSNodeHandle

	folded bool

	forward       *DSNode
	forwardOffset int
}

func (n *DSNode) Index() int { return n.index }

func (n *DSNode) IsFolded() bool { return n.folded }

func newNode(idx int) *DSNode {
	return &DSNode{index: idx, Edges: make(map[int]DSNodeHandle)}
}

// addType inserts a field-type record at offset, keeping TypeList
// offset-sorted (spec.md §3 invariant: "offsets inside a node are monotone
// after folding").
func (n *DSNode) addType(offset int, t *ir.Type) {
	if t == nil {
		return
	}
	for _, ft := range n.TypeList {
		if ft.Offset == offset && ft.Type == t {
			return
		}
	}
	rec := FieldType{Offset: offset, Type: t}
	i := 0
	for i < len(n.TypeList) && n.TypeList[i].Offset < offset {
		i++
	}
	n.TypeList = append(n.TypeList, FieldType{})
	copy(n.TypeList[i+1:], n.TypeList[i:])
	n.TypeList[i] = rec
}

func (n *DSNode) addGlobal(g *ir.Value) {
	for _, existing := range n.Globals {
		if existing == g {
			return
		}
	}
	n.Globals = append(n.Globals, g)
}
