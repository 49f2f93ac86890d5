package dsgraph

import "github.com/kestrelcc/kestrel/internal/ir"

// CallSite holds handles for return value, callee, and pointer arguments of
// one call instruction (spec.md §3 "DS-graph"). ResolvingCaller is not set
// or read by the bottom-up closure: Close detects recursion with its own
// per-function visit state (closure.go).
type CallSite struct {
	Call   *ir.Instruction
	RetVal DSNodeHandle
	Callee *ir.Value // the called operand (function value, for direct calls)
	Args   []DSNodeHandle

	CalleeName      string // Callee.Name when Callee is a direct FunctionValue
	CalleeFunc      *ir.Function // resolved by the closure pass once the call graph is known
	ResolvingCaller bool
	Resolved        bool
}

// Graph is a per-function data-structure graph: a node arena, a scalar map
// from SSA values to the node they point to, a per-function return-node
// handle, and two ordered call-site lists (original and auxiliary —
// spec.md §3 "DS-graph").
type Graph struct {
	Func *ir.Function

	Nodes []*DSNode

	ScalarMap map[*ir.Value]DSNodeHandle

	ReturnNode DSNodeHandle

	CallSites    []*CallSite
	AuxCallSites []*CallSite

	globalNodes map[*ir.Value]*DSNode
}

func NewGraph(f *ir.Function) *Graph {
	return &Graph{
		Func:        f,
		ScalarMap:   make(map[*ir.Value]DSNodeHandle),
		globalNodes: make(map[*ir.Value]*DSNode),
	}
}

func (g *Graph) newNode() *DSNode {
	n := newNode(len(g.Nodes))
	g.Nodes = append(g.Nodes, n)
	return n
}

// globalNode returns the (lazily created) node for a global value, flagged
// Global+Incomplete since its full points-to set may depend on modules this
// graph doesn't see (spec.md §4.6 "incomplete: nodes reachable via
// globals...").
func (g *Graph) globalNode(v *ir.Value) *DSNode {
	if n, ok := g.globalNodes[v]; ok {
		return n
	}
	n := g.newNode()
	n.Flags |= FlagGlobal | FlagIncomplete
	n.addGlobal(v)
	g.globalNodes[v] = n
	return n
}

// handleFor resolves the node handle a scalar value currently points to,
// lazily materialising global nodes on first reference.
func (g *Graph) handleFor(v *ir.Value) DSNodeHandle {
	if v == nil {
		return DSNodeHandle{}
	}
	if h, ok := g.ScalarMap[v]; ok {
		return h.Resolve()
	}
	if v.ValueKind() == ir.GlobalValue && v.Type.IsPointer() {
		h := DSNodeHandle{Node: g.globalNode(v), Offset: 0}
		g.ScalarMap[v] = h
		return h
	}
	return DSNodeHandle{}
}

// CheckInvariants validates the invariants spec.md §4.6 requires after
// every pass: every scalar-map, return and call-site handle resolves into
// the node arena, and offsets inside a folded node are all zero. It does not
// check that every scalar-map value is used, and it does not look at the
// auxiliary call sites.
func (g *Graph) CheckInvariants() error {
	inArena := make(map[*DSNode]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		inArena[n] = true
	}
	check := func(h DSNodeHandle) error {
		r := h.Resolve()
		if r.Node == nil {
			return nil
		}
		if !inArena[r.Node] {
			return errNodeNotInArena
		}
		if r.Node.folded && r.Offset != 0 {
			return errFoldedNonZeroOffset
		}
		return nil
	}
	for _, h := range g.ScalarMap {
		if err := check(h); err != nil {
			return err
		}
	}
	if err := check(g.ReturnNode); err != nil {
		return err
	}
	for _, cs := range g.CallSites {
		if err := check(cs.RetVal); err != nil {
			return err
		}
		for _, a := range cs.Args {
			if err := check(a); err != nil {
				return err
			}
		}
	}
	return nil
}
