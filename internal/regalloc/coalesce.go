package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Coalesce implements spec.md §4.5 "Coalescing": for every (def-MI,
// use-operand) pair within the same MI that share a register class, do not
// interfere, have combined effective degree within the class's register
// count, and are not both already suggested a colour, merge the two live
// ranges. The absorbed range's IG node is nulled in place rather than
// removed, per spec.md's "nulled IG-node entries remain in the list to
// preserve indices".
func Coalesce(desc *target.Description, mf *mir.Function, lrs *LiveRanges, graphs map[target.RegClass]*Graph) {
	merged := make(map[*LiveRange]*LiveRange) // old -> surviving range
	find := func(lr *LiveRange) *LiveRange {
		for merged[lr] != nil {
			lr = merged[lr]
		}
		return lr
	}

	mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
		for _, d := range mi.Defs() {
			if !d.IsRegister() || d.Value == nil {
				continue
			}
			dlr := find(lrs.For(d.Value))
			for _, u := range mi.Uses() {
				if !u.IsRegister() || u.Value == nil || u.Class != d.Class {
					continue
				}
				ulr := find(lrs.For(u.Value))
				if ulr == dlr {
					continue
				}
				g := graphs[dlr.Class]
				if g == nil || g.interferes(dlr, ulr) {
					continue
				}
				if dlr.HasSuggestion && ulr.HasSuggestion {
					continue
				}
				rc := desc.Class(dlr.Class)
				if degreeOf(g, dlr)+degreeOf(g, ulr) > rc.NumRegs {
					continue
				}
				absorb(g, dlr, ulr)
				merged[ulr] = dlr
			}
		}
	})

	for v, lr := range lrs.ofValExported() {
		lrs.setFor(v, find(lr))
	}
}

func degreeOf(g *Graph, lr *LiveRange) int {
	return len(g.neighbours(lr))
}

// absorb merges ulr into dlr: dlr gains ulr's interference edges, defs,
// and uses, and ulr's IG node is nulled (kept in the slice for index
// stability).
func absorb(g *Graph, dlr, ulr *LiveRange) {
	dlr.Defs = append(dlr.Defs, ulr.Defs...)
	dlr.Uses = append(dlr.Uses, ulr.Uses...)
	dlr.CallInterference = dlr.CallInterference || ulr.CallInterference
	if !dlr.HasSuggestion && ulr.HasSuggestion {
		dlr.HasSuggestion = true
		dlr.SuggestedColour = ulr.SuggestedColour
	}

	for _, id := range g.neighbours(ulr) {
		other := findNodeByID(g, id)
		if other == nil || other == dlr {
			continue
		}
		g.addEdge(dlr, other)
	}
	delete(g.adj, ulr.ID)
	for _, m := range g.adj {
		delete(m, ulr.ID)
	}
	for i, n := range g.Nodes {
		if n != nil && n.LR == ulr {
			g.Nodes[i] = nil
		}
	}
}

func findNodeByID(g *Graph, id int) *LiveRange {
	for _, n := range g.Nodes {
		if n != nil && n.LR.ID == id {
			return n.LR
		}
	}
	return nil
}
