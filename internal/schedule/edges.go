package schedule

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// memClass classifies one MI as load, store, or call for the 3x3 memory
// order-flag table of spec.md §4.3 step 2. Calls are treated as both a load
// and a store (conservative: unknown memory effects).
type memClass int

const (
	memNone memClass = iota
	memLoad
	memStore
	memCall
)

func classifyMemory(mi *mir.Instr) memClass {
	switch mi.Op {
	case target.Load, target.LoadIndexed:
		return memLoad
	case target.Store, target.StoreIndexed:
		return memStore
	case target.Call, target.CallIndirect:
		return memCall
	default:
		return memNone
	}
}

// memoryOrderFlag is the 3x3 {load,store,call}x{load,store,call} table of
// spec.md §4.3 step 2; no load->load edge is added.
func memoryOrderFlag(a, b memClass) (OrderFlag, bool) {
	if a == memLoad && b == memLoad {
		return 0, false
	}
	switch {
	case a == memStore && b == memStore:
		return OrderOutput, true
	case a == memLoad && b == memStore:
		return OrderAnti, true
	case a == memStore && b == memLoad:
		return OrderTrue, true
	default: // either side is a call
		return OrderNonData, true
	}
}

// addControlDependenceEdges implements spec.md §4.3 step 1: every MI
// ahead of the first branch of the terminator expansion depends on it (a
// call counts as a branch for the branch-to-branch edges, but never as the
// terminator's first branch); each branch depends on subsequent branches; and
// delayed MIs depend on the MIs occupying their delay slots (in this
// selector's output, those slots immediately follow the branch as NOPs or
// filled instructions — internal/schedule's own delay-slot fill step
// replaces them later, so this edge keeps them from being reordered away
// from the branch in the meantime).
func addControlDependenceEdges(desc *target.Description, g *Graph) {
	var firstBranch *Node
	var branches []*Node
	for _, n := range g.Nodes {
		if isBranch(n.MI.Op) {
			branches = append(branches, n)
			if firstBranch == nil && n.MI.Op != target.Call && n.MI.Op != target.CallIndirect {
				firstBranch = n
			}
		}
	}
	if firstBranch == nil {
		return
	}
	for _, n := range g.Nodes {
		if n == firstBranch {
			continue
		}
		if n.Pos < firstBranch.Pos {
			addEdge(n, firstBranch, DepControl, OrderNonData, 0, nil)
		}
	}
	for i := 0; i < len(branches); i++ {
		for j := i + 1; j < len(branches); j++ {
			addEdge(branches[i], branches[j], DepControl, OrderNonData, 1, nil)
		}
	}
	for _, n := range g.Nodes {
		info := desc.Info(n.MI.Op)
		if !info.HasDelaySlots() {
			continue
		}
		for k := 1; k <= info.DelaySlots && n.Pos+k < len(g.Nodes); k++ {
			addEdge(n, g.Nodes[n.Pos+k], DepControl, OrderNonData, 0, nil)
		}
	}
}

func isBranch(op target.Opcode) bool {
	switch op {
	case target.Branch, target.BranchOnCCEqual, target.BranchOnCCNotEqual,
		target.BranchOnCCLess, target.BranchOnCCLessEqual,
		target.BranchOnCCGreater, target.BranchOnCCGreaterEqual,
		target.Jump, target.Call, target.CallIndirect, target.Return:
		return true
	default:
		return false
	}
}

// addMemoryEdges implements spec.md §4.3 step 2.
func addMemoryEdges(g *Graph) {
	for i := 0; i < len(g.Nodes); i++ {
		ci := classifyMemory(g.Nodes[i].MI)
		if ci == memNone {
			continue
		}
		for j := i + 1; j < len(g.Nodes); j++ {
			cj := classifyMemory(g.Nodes[j].MI)
			if cj == memNone {
				continue
			}
			if flag, ok := memoryOrderFlag(ci, cj); ok {
				addEdge(g.Nodes[i], g.Nodes[j], DepMemory, flag, 1, nil)
			}
		}
	}
}

// addCallCCEdges implements spec.md §4.3 step 3: MIs reading/writing a
// condition-code register may not cross a call.
func addCallCCEdges(g *Graph) {
	var calls []*Node
	for _, n := range g.Nodes {
		if n.MI.Op == target.Call || n.MI.Op == target.CallIndirect {
			calls = append(calls, n)
		}
	}
	if len(calls) == 0 {
		return
	}
	for _, n := range g.Nodes {
		if !touchesCC(n.MI) {
			continue
		}
		for _, c := range calls {
			if n.Pos < c.Pos {
				addEdge(n, c, DepControl, OrderNonData, 0, nil)
			} else if n.Pos > c.Pos {
				addEdge(c, n, DepControl, OrderNonData, 0, nil)
			}
		}
	}
}

func touchesCC(mi *mir.Instr) bool {
	for _, o := range mi.Operands {
		if o.Kind == mir.ConditionCodeRegister {
			return true
		}
	}
	return false
}

// addSSADefUseEdges implements spec.md §4.3 step 4: an edge from each
// in-block producer of a value to each in-block user of it, payload the
// value.
func addSSADefUseEdges(g *Graph) {
	defOf := make(map[interface{}]*Node)
	for _, n := range g.Nodes {
		for _, d := range n.MI.Defs() {
			if d.IsRegister() && d.Value != nil {
				defOf[d.Value] = n
			}
		}
	}
	for _, n := range g.Nodes {
		for _, u := range n.MI.Uses() {
			if !u.IsRegister() || u.Value == nil {
				continue
			}
			producer, ok := defOf[u.Value]
			if !ok || producer == n {
				continue
			}
			addEdge(producer, n, DepDefUse, OrderTrue, producer.Latency, u.Value)
		}
	}
}

// addNonSSADefUseEdges implements spec.md §4.3 step 5: output edges, in
// program order, among multiple definitions of the same IR value in this
// block (possible once the selector has emitted more than one MI per IR
// instruction). No anti edges are added.
func addNonSSADefUseEdges(g *Graph) {
	defs := make(map[interface{}][]*Node)
	for _, n := range g.Nodes {
		for _, d := range n.MI.Defs() {
			if d.IsRegister() && d.Value != nil {
				defs[d.Value] = append(defs[d.Value], n)
			}
		}
	}
	for _, ns := range defs {
		if len(ns) < 2 {
			continue
		}
		for i := 0; i < len(ns); i++ {
			for j := i + 1; j < len(ns); j++ {
				a, b := ns[i], ns[j]
				if a.Pos > b.Pos {
					a, b = b, a
				}
				addEdge(a, b, DepDefUse, OrderOutput, 0, nil)
			}
		}
	}
}

// addMachineRegisterEdges implements spec.md §4.3 step 6: for each physical
// register referenced in the block, one OrderNonData edge (min-delay 0)
// per ordered pair of referencing MIs. It does not tell true, anti and
// output dependences apart, and it orders two uses as well.
func addMachineRegisterEdges(g *Graph) {
	refs := make(map[target.PhysReg][]*Node)
	for _, n := range g.Nodes {
		seen := make(map[target.PhysReg]bool)
		for _, o := range n.MI.Operands {
			if o.Kind == mir.MachineRegister && !seen[o.Phys] {
				seen[o.Phys] = true
				refs[o.Phys] = append(refs[o.Phys], n)
			}
		}
	}
	for _, ns := range refs {
		for i := 0; i < len(ns); i++ {
			for j := i + 1; j < len(ns); j++ {
				addEdge(ns[i], ns[j], DepMachineRegister, OrderNonData, 0, nil)
			}
		}
	}
}

// addRootLeafEdges implements spec.md §4.3 step 7.
func addRootLeafEdges(g *Graph) {
	for _, n := range g.Nodes {
		if len(n.In) == 0 {
			addEdge(g.Root, n, DepControl, OrderNonData, 0, nil)
		}
		if len(n.Out) == 0 {
			addEdge(n, g.Leaf, DepControl, OrderNonData, 0, nil)
		}
	}
}
