package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Colour implements spec.md §4.5 "Colouring (per class)": Briggs-style
// simplify/select over the interference graph, one class at a time. Nodes
// that cannot be coloured are marked Spilled and given a frame offset from
// the function's local-variable area; spilling never fails.
func Colour(desc *target.Description, mf *mir.Function, graphs map[target.RegClass]*Graph) {
	for class, g := range graphs {
		rc := desc.Class(class)
		colourClass(desc, rc, mf, g)
	}
}

func colourClass(desc *target.Description, rc *target.RegisterClass, mf *mir.Function, g *Graph) {
	live := liveNodes(g)
	degree := make(map[*LiveRange]int, len(live))
	for _, lr := range live {
		degree[lr] = degreeOf(g, lr)
	}

	var stack []*LiveRange
	remaining := make(map[*LiveRange]bool, len(live))
	for _, lr := range live {
		remaining[lr] = true
	}

	decrementNeighbours := func(lr *LiveRange) {
		for _, id := range g.neighbours(lr) {
			other := findNodeByID(g, id)
			if other != nil && remaining[other] {
				degree[other]--
			}
		}
	}
	push := func(lr *LiveRange) {
		if n := nodeOf(g, lr); n != nil {
			n.pushOrder = len(stack)
		}
		stack = append(stack, lr)
		delete(remaining, lr)
		decrementNeighbours(lr)
	}

	for len(remaining) > 0 {
		pushedAny := false
		for _, lr := range live {
			if !remaining[lr] {
				continue
			}
			if degree[lr] < rc.NumRegs {
				push(lr)
				pushedAny = true
			}
		}
		if pushedAny || len(remaining) == 0 {
			continue
		}

		// No unconstrained node remains: pick the lowest spill-cost/degree
		// ratio among what's left (spec.md §4.5 step 3).
		var worst *LiveRange
		worstRatio := -1.0
		for lr := range remaining {
			d := degree[lr]
			if d <= 0 {
				d = 1
			}
			ratio := spillCost(lr) / float64(d)
			if worst == nil || ratio < worstRatio {
				worst, worstRatio = lr, ratio
			}
		}
		push(worst)
	}

	coloured := make(map[*LiveRange]bool)
	for i := len(stack) - 1; i >= 0; i-- {
		lr := stack[i]
		used := make(map[target.PhysReg]bool)
		for _, id := range g.neighbours(lr) {
			other := findNodeByID(g, id)
			if other != nil && coloured[other] && other.HasColour {
				used[other.Colour] = true
			}
		}

		order := colourOrder(rc, lr)
		if lr.HasSuggestion && !lr.SuggestionBad && !used[lr.SuggestedColour] {
			lr.Colour = lr.SuggestedColour
			lr.HasColour = true
			coloured[lr] = true
			continue
		}

		picked := false
		for _, r := range order {
			if used[r] {
				continue
			}
			if lr.CallInterference && rc.IsVolatile(r) {
				// only acceptable if nothing non-volatile remains; defer
				// and check below
				continue
			}
			lr.Colour = r
			lr.HasColour = true
			picked = true
			break
		}
		if !picked {
			for _, r := range order {
				if used[r] {
					continue
				}
				lr.Colour = r
				lr.HasColour = true
				picked = true
				break
			}
		}
		if !picked {
			lr.Spilled = true
			lr.SpillOff = mf.AllocFrameSlot(8)
		}
		coloured[lr] = true
	}
}

// colourOrder implements spec.md §4.5 step 5: a double-typed float range
// tries the double-only region of the class first, then the general
// integer-usable float region.
func colourOrder(rc *target.RegisterClass, lr *LiveRange) []target.PhysReg {
	base := rc.ColourOrder(lr.CallInterference)
	if !lr.IsDouble || rc.DoubleOnlyHi <= rc.DoubleOnlyLo {
		return base
	}
	var doubles, rest []target.PhysReg
	for _, r := range base {
		if int(r) >= rc.DoubleOnlyLo && int(r) < rc.DoubleOnlyHi {
			doubles = append(doubles, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(doubles, rest...)
}

// spillCost is a simple use/def-count heuristic: more references means
// more expensive to spill (spec.md §4.5 step 3 "spill-cost / degree
// ratio" — the exact cost function is target-specific; this one is the
// straightforward reference-count proxy).
func spillCost(lr *LiveRange) float64 {
	return float64(len(lr.Defs) + len(lr.Uses))
}

func nodeOf(g *Graph, lr *LiveRange) *IGNode {
	for _, n := range g.Nodes {
		if n != nil && n.LR == lr {
			return n
		}
	}
	return nil
}

func liveNodes(g *Graph) []*LiveRange {
	out := make([]*LiveRange, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n != nil {
			out = append(out, n.LR)
		}
	}
	return out
}
