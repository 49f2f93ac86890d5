package schedule

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// fillDelaySlots implements spec.md §4.4 "Delay-slot filling": for each
// delayed branch already placed in order, pick up to ndelays preceding MIs
// that satisfy criteria (i)-(iv), preferring single-cycle candidates over
// lowest-latency multi-cycle ones, and fill whatever is left with the NOPs
// the selector originally emitted for that branch's delay slots.
func fillDelaySlots(desc *target.Description, g *Graph, order []*mir.Instr) {
	for i, mi := range order {
		info := desc.Info(mi.Op)
		if !info.HasDelaySlots() {
			continue
		}
		n := g.nodeFor(mi)
		if n == nil {
			continue
		}
		fillOneBranch(desc, g, order, i, info.DelaySlots)
	}
}

// fillOneBranch fills the ndelays slots immediately following order[branchIdx].
func fillOneBranch(desc *target.Description, g *Graph, order []*mir.Instr, branchIdx, ndelays int) {
	branchNode := g.nodeFor(order[branchIdx])
	candidates := candidatesFor(desc, g, order, branchIdx)
	chosen := pickCandidates(desc, order, candidates, ndelays)

	chosenSet := make(map[int]bool, len(chosen))
	for _, idx := range chosen {
		chosenSet[idx] = true
	}

	slots := make([]*mir.Instr, ndelays)
	for i, idx := range chosen {
		slots[i] = order[idx]
	}
	for i := range slots {
		if slots[i] == nil {
			slots[i] = &mir.Instr{Op: target.Nop, Source: branchNode.MI.Source}
		}
	}

	// Remove chosen candidates from their old position and splice the slot
	// sequence directly after the branch. Build a fresh order slice: every
	// instruction before the branch unaffected, the branch itself, the
	// delay slots, then everything else in original relative order with
	// the chosen candidates and stale NOPs omitted.
	var rebuilt []*mir.Instr
	rebuilt = append(rebuilt, order[:branchIdx+1]...)
	rebuilt = append(rebuilt, slots...)
	for i := branchIdx + 1; i < len(order); i++ {
		if chosenSet[i] {
			continue
		}
		if isOriginalDelaySlotNop(g, order[i], branchNode) {
			continue
		}
		rebuilt = append(rebuilt, order[i])
	}
	copy(order, rebuilt[:len(order)])
}

// candidatesFor finds every MI before branchIdx meeting criteria (i)-(iv):
// not itself a branch, not single-issue, no load-use dependence into the
// branch, and whose only outgoing edge is the control-dependence edge to
// the branch.
func candidatesFor(desc *target.Description, g *Graph, order []*mir.Instr, branchIdx int) []int {
	branchNode := g.nodeFor(order[branchIdx])
	var out []int
	for i := 0; i < branchIdx; i++ {
		n := g.nodeFor(order[i])
		if n == nil {
			continue
		}
		info := desc.Info(n.MI.Op)
		if isBranch(n.MI.Op) || info.SingleIssue {
			continue
		}
		if hasLoadUseInto(n, branchNode) {
			continue
		}
		if !onlyControlEdgeTo(n, branchNode) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func hasLoadUseInto(n, branch *Node) bool {
	for _, e := range n.Out {
		if e.Sink == branch && e.Dep == DepMemory && e.Order&OrderTrue != 0 {
			return true
		}
	}
	return false
}

func onlyControlEdgeTo(n, branch *Node) bool {
	if len(n.Out) == 0 {
		return false
	}
	for _, e := range n.Out {
		if e.Sink != branch {
			return false
		}
		if e.Dep != DepControl {
			return false
		}
	}
	return true
}

type delayCandidate struct {
	idx     int
	latency int
}

// pickCandidates selects up to ndelays indices from candidates, preferring
// single-cycle latency then lowest latency, and preserving original
// program order among equally-ranked picks so the filled slots still read
// top-to-bottom.
func pickCandidates(desc *target.Description, order []*mir.Instr, candidates []int, ndelays int) []int {
	ranked := make([]delayCandidate, 0, len(candidates))
	for _, idx := range candidates {
		ranked = append(ranked, delayCandidate{idx: idx, latency: desc.Info(order[idx].Op).LatencyMax})
	}
	sortByLatencyThenOrder(ranked)
	if len(ranked) > ndelays {
		ranked = ranked[:ndelays]
	}
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.idx
	}
	sortInts(out)
	return out
}

func sortByLatencyThenOrder(rs []delayCandidate) {
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && less(rs[j], rs[j-1]); j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}

func less(a, b delayCandidate) bool {
	if a.latency != b.latency {
		return a.latency < b.latency
	}
	return a.idx < b.idx
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j] < xs[j-1]; j-- {
			xs[j], xs[j-1] = xs[j-1], xs[j]
		}
	}
}

// isOriginalDelaySlotNop reports whether mi is a NOP that the selector
// originally emitted to occupy one of branch's delay slots (so it is
// erased once a real candidate fills that slot, per spec.md §4.4).
func isOriginalDelaySlotNop(g *Graph, mi *mir.Instr, branch *Node) bool {
	if !mi.IsNop {
		return false
	}
	n := g.nodeFor(mi)
	if n == nil {
		return false
	}
	for _, e := range n.In {
		if e.Src == branch && e.Dep == DepControl {
			return true
		}
	}
	return false
}
