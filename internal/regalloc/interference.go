package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/livevar"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Graph is the interference graph for one register class: one IGNode per
// LiveRange of that class, plus an adjacency matrix (spec.md §4.5
// "Interference construction").
type Graph struct {
	Class target.RegClass
	Nodes []*IGNode // index == LiveRange.ID's position within this class; nil once coalesced away

	adj map[int]map[int]bool
}

// IGNode wraps one LiveRange with the mutable colouring state (spec.md §4.5
// steps 1-4: degree, stack membership, spill cost).
type IGNode struct {
	LR        *LiveRange
	Degree    int
	OnStack   bool
	SpillCost float64

	// pushOrder is the position this node was pushed onto the colouring
	// stack, diagnostics-only (supplemented feature, original IGNode.cpp).
	pushOrder int
}

func newGraph(class target.RegClass) *Graph {
	return &Graph{Class: class, adj: make(map[int]map[int]bool)}
}

func (g *Graph) addNode(lr *LiveRange) *IGNode {
	n := &IGNode{LR: lr}
	g.Nodes = append(g.Nodes, n)
	return n
}

func (g *Graph) addEdge(a, b *LiveRange) {
	if a == nil || b == nil || a == b {
		return
	}
	if g.adj[a.ID] == nil {
		g.adj[a.ID] = make(map[int]bool)
	}
	if g.adj[b.ID] == nil {
		g.adj[b.ID] = make(map[int]bool)
	}
	if g.adj[a.ID][b.ID] {
		return
	}
	g.adj[a.ID][b.ID] = true
	g.adj[b.ID][a.ID] = true
}

func (g *Graph) interferes(a, b *LiveRange) bool {
	return g.adj[a.ID] != nil && g.adj[a.ID][b.ID]
}

func (g *Graph) neighbours(lr *LiveRange) []int {
	out := make([]int, 0, len(g.adj[lr.ID]))
	for id := range g.adj[lr.ID] {
		out = append(out, id)
	}
	return out
}

// BuildInterference computes global (cross-block) liveness via a backward fixpoint
// over ir successor edges, then runs spec.md §4.5's interference
// construction: for each value defined at an MI, interfere with every
// value live immediately after that MI; mark call-interference for values
// live across a call; and make every entry-block live-in value interfere
// with the function's argument live ranges.
func BuildInterference(desc *target.Description, mf *mir.Function, lrs *LiveRanges) map[target.RegClass]*Graph {
	liveIn, liveOut := globalLiveness(mf)

	graphs := make(map[target.RegClass]*Graph)
	nodeFor := make(map[*LiveRange]*IGNode)
	ensureGraph := func(lr *LiveRange) *Graph {
		g := graphs[lr.Class]
		if g == nil {
			g = newGraph(lr.Class)
			graphs[lr.Class] = g
		}
		if nodeFor[lr] == nil {
			nodeFor[lr] = g.addNode(lr)
		}
		return g
	}
	for _, lr := range lrs.Ranges {
		ensureGraph(lr)
	}

	for _, mb := range mf.Blocks {
		out := liveOut[mb.Source]
		pi := livevar.Analyze(mb, out)
		for i, mi := range mb.Instrs {
			live := pi.LiveOut[i]
			defs := mi.Defs()
			for _, d := range defs {
				if !d.IsRegister() || d.Value == nil {
					continue
				}
				dlr := lrs.For(d.Value)
				g := ensureGraph(dlr)
				for v := range live {
					if v == d.Value {
						continue
					}
					vlr := lrs.For(v)
					if vlr == nil || vlr.Class != dlr.Class {
						continue
					}
					g.addEdge(dlr, vlr)
				}
			}
			if mi.Op == target.Call || mi.Op == target.CallIndirect {
				retVal := callReturnValue(mi)
				for v := range live {
					if v == retVal {
						continue
					}
					if vlr := lrs.For(v); vlr != nil {
						vlr.CallInterference = true
					}
				}
			}
		}
	}

	entryIn := liveIn[mf.Source.Entry]
	for v := range entryIn {
		vlr := lrs.For(v)
		if vlr == nil {
			continue
		}
		for _, a := range mf.Source.Args {
			alr := lrs.For(a)
			if alr == nil || alr == vlr || alr.Class != vlr.Class {
				continue
			}
			ensureGraph(alr).addEdge(alr, vlr)
		}
	}

	return graphs
}

func callReturnValue(mi *mir.Instr) *ir.Value {
	for _, o := range mi.Operands {
		if o.IsDef && o.IsRegister() {
			return o.Value
		}
	}
	return nil
}

// globalLiveness runs a standard iterative backward data-flow fixpoint
// over the function's CFG, since C7 (internal/livevar) only computes
// liveness within one block given a caller-supplied live-out set.
func globalLiveness(mf *mir.Function) (liveIn, liveOut map[*ir.BasicBlock]livevar.Set) {
	liveIn = make(map[*ir.BasicBlock]livevar.Set)
	liveOut = make(map[*ir.BasicBlock]livevar.Set)
	for _, b := range mf.Source.Blocks {
		liveIn[b] = livevar.NewSet()
		liveOut[b] = livevar.NewSet()
	}

	changed := true
	for changed {
		changed = false
		for i := len(mf.Source.Blocks) - 1; i >= 0; i-- {
			b := mf.Source.Blocks[i]
			out := livevar.NewSet()
			for _, succ := range b.Successors() {
				for v := range liveIn[succ] {
					out[v] = struct{}{}
				}
			}
			mb := mf.BlockFor(b)
			pi := livevar.Analyze(mb, out)

			if !setEqual(liveOut[b], out) {
				liveOut[b] = out
				changed = true
			}
			if !setEqual(liveIn[b], pi.LiveIn) {
				liveIn[b] = pi.LiveIn
				changed = true
			}
		}
	}
	return liveIn, liveOut
}

func setEqual(a, b livevar.Set) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}
