package schedule

import (
	"container/heap"

	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Run schedules g's basic block (spec.md §4.4 "List scheduler") and
// rewrites b's MI list in schedule order, then fills delay slots. It
// returns the final instruction order.
func Run(desc *target.Description, g *Graph) []*mir.Instr {
	order := listSchedule(desc, g)
	fillDelaySlots(desc, g, order)
	g.Block.Reorder(order)
	return order
}

// listSchedule implements spec.md §4.4's main loop: a priority heap of
// ready MIs, cycle-by-cycle selection of a feasible set respecting issue
// width, per-opcode minimum gap, class-issue limits, and single-issue
// opcodes, with one delayed instruction reserved the last issue slot of its
// cycle.
func listSchedule(desc *target.Description, g *Graph) []*mir.Instr {
	g.Root.Scheduled = true
	g.Root.StartTime = -1

	ready := &readyHeap{}
	heap.Init(ready)
	earliest := make(map[*Node]int)
	waiting := make(map[*Node]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		waiting[n] = true
	}

	tryAdmit := func(n *Node) {
		if !waiting[n] || !allPredsScheduled(n) {
			return
		}
		delete(waiting, n)
		earliest[n] = earliestStartOf(n)
		heap.Push(ready, n)
	}
	for _, n := range g.Nodes {
		tryAdmit(n)
	}

	lastIssue := make(map[target.Opcode]int)
	var order []*Node
	cycle := 0

	for len(order) < len(g.Nodes) {
		if ready.Len() == 0 {
			// Nothing admitted yet but nodes remain: a malformed graph would
			// hang here forever; spec.md §4.4 treats this as impossible for
			// a real DAG with root/leaf sentinels, so we simply stop rather
			// than loop — any unscheduled nodes are appended in original
			// order as a last resort.
			break
		}

		popped, notYet := popFeasibleByTime(ready, earliest, cycle)
		if len(popped) == 0 {
			cycle = minEarliestAmong(notYet, earliest)
			for _, n := range notYet {
				heap.Push(ready, n)
			}
			continue
		}
		for _, n := range notYet {
			heap.Push(ready, n)
		}

		selected, rest := chooseIssueGroup(desc, popped, lastIssue, cycle)
		for _, n := range rest {
			heap.Push(ready, n)
		}
		if len(selected) == 0 {
			cycle++
			continue
		}
		selected = reorderDelayedLast(desc, selected)

		for _, n := range selected {
			n.Scheduled = true
			n.StartTime = cycle
			order = append(order, n)
			lastIssue[n.MI.Op] = cycle
		}
		for _, n := range selected {
			for _, e := range n.Out {
				if e.Sink != g.Leaf {
					tryAdmit(e.Sink)
				}
			}
		}
		cycle++
	}

	// Any node never admitted (cyclic or malformed dependency) is appended
	// in original program order, a conservative fallback that keeps Run
	// total rather than panicking.
	if len(order) < len(g.Nodes) {
		scheduledSet := make(map[*Node]bool, len(order))
		for _, n := range order {
			scheduledSet[n] = true
		}
		for _, n := range g.Nodes {
			if !scheduledSet[n] {
				order = append(order, n)
			}
		}
	}

	out := make([]*mir.Instr, len(order))
	for i, n := range order {
		out[i] = n.MI
	}
	return out
}

func allPredsScheduled(n *Node) bool {
	for _, e := range n.In {
		if !e.Src.Scheduled {
			return false
		}
	}
	return true
}

func earliestStartOf(n *Node) int {
	best := 0
	for _, e := range n.In {
		if s := e.Src.StartTime + e.MinDelay; s > best {
			best = s
		}
	}
	return best
}

// popFeasibleByTime pops every ready node whose earliest-start is <= cycle,
// in priority order, leaving nodes whose earliest-start is later in notYet.
func popFeasibleByTime(ready *readyHeap, earliest map[*Node]int, cycle int) (feasible, notYet []*Node) {
	for ready.Len() > 0 {
		n := heap.Pop(ready).(*Node)
		if earliest[n] > cycle {
			notYet = append(notYet, n)
			continue
		}
		feasible = append(feasible, n)
	}
	return feasible, notYet
}

// minEarliestAmong returns the smallest earliest-start time among nodes,
// used to advance the cycle counter when nothing is issuable yet.
func minEarliestAmong(nodes []*Node, earliest map[*Node]int) int {
	min := -1
	for _, n := range nodes {
		if e := earliest[n]; min == -1 || e < min {
			min = e
		}
	}
	if min == -1 {
		min = 0
	}
	return min
}

// chooseIssueGroup picks at most desc.IssueWidth nodes from feasible
// (already in priority order) honouring single-issue opcodes, per-class
// issue limits, and the minimum-gap matrix (spec.md §4.4 "Cycle model").
func chooseIssueGroup(desc *target.Description, feasible []*Node, lastIssue map[target.Opcode]int, cycle int) (selected, rest []*Node) {
	issuedClass := make(map[int]int)
	singleIssued := false

	for _, n := range feasible {
		info := desc.Info(n.MI.Op)

		if singleIssued {
			rest = append(rest, n)
			continue
		}
		if info.SingleIssue {
			if len(selected) > 0 {
				rest = append(rest, n)
				continue
			}
			if !gapOK(desc, lastIssue, n.MI.Op, cycle) {
				rest = append(rest, n)
				continue
			}
			selected = append(selected, n)
			singleIssued = true
			continue
		}
		if len(selected) >= desc.IssueWidth {
			rest = append(rest, n)
			continue
		}
		if limit, ok := desc.ClassIssueLimit[info.IssueClass]; ok && issuedClass[info.IssueClass] >= limit {
			rest = append(rest, n)
			continue
		}
		if !gapOK(desc, lastIssue, n.MI.Op, cycle) {
			rest = append(rest, n)
			continue
		}
		selected = append(selected, n)
		issuedClass[info.IssueClass]++
	}
	return selected, rest
}

func gapOK(desc *target.Description, lastIssue map[target.Opcode]int, op target.Opcode, cycle int) bool {
	for prevOp, prevCycle := range lastIssue {
		if gap := desc.MinGap[prevOp][op]; gap > 0 && cycle-prevCycle < gap {
			return false
		}
	}
	return true
}

// reorderDelayedLast implements spec.md §4.4 step 3: a delayed instruction
// (one with delay slots) is placed in the highest-numbered issue slot of
// its cycle so its delay slots immediately follow in program order.
func reorderDelayedLast(desc *target.Description, selected []*Node) []*Node {
	out := make([]*Node, 0, len(selected))
	var delayed *Node
	for _, n := range selected {
		if desc.Info(n.MI.Op).HasDelaySlots() && delayed == nil {
			delayed = n
			continue
		}
		out = append(out, n)
	}
	if delayed != nil {
		out = append(out, delayed)
	}
	return out
}
