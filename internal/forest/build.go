package forest

import "github.com/kestrelcc/kestrel/internal/ir"

// Forest is the set of instruction trees for one basic block, in program
// order of their root instructions.
type Forest struct {
	Block *ir.BasicBlock
	Roots []*Node
}

// BuildBlock partitions b's instructions into a forest of trees (spec.md
// §4.1). A root is any instruction whose result is live out of the block,
// used by a phi, used in a different block, or used more than once in this
// block; calls and phis are always roots. Everything else either folds into
// a parent tree (single use, same block, parent not a phi/call) or becomes
// its own one-node root tree.
func BuildBlock(b *ir.BasicBlock) *Forest {
	isRoot := make(map[*ir.Instruction]bool, b.Len())
	for inst := b.First(); inst != nil; inst = inst.Next() {
		isRoot[inst] = classifyRoot(inst, b)
	}

	f := &Forest{Block: b}
	for inst := b.First(); inst != nil; inst = inst.Next() {
		if isRoot[inst] {
			f.Roots = append(f.Roots, buildInstrNode(inst))
		}
	}
	return f
}

func classifyRoot(inst *ir.Instruction, b *ir.BasicBlock) bool {
	if inst.IsCall() || inst.IsPhi() || inst.IsTerminator() {
		return true
	}
	res := inst.Result()
	if res == nil {
		return true // no result: e.g. void store — nothing can fold it, so root
	}
	uses := res.Uses()
	if len(uses) != 1 {
		return true // zero uses (dead, still a root so it still emits) or multi-use
	}
	u := uses[0]
	if u.User.Block != b {
		return true
	}
	if u.User.IsPhi() || u.User.IsCall() {
		return true
	}
	return false
}

func buildInstrNode(inst *ir.Instruction) *Node {
	n := newInstrNode(inst)
	parentIsPhiOrCall := inst.IsPhi() || inst.IsCall()

	vals := make([]*ir.Value, inst.NumOperands())
	for i := range vals {
		vals[i] = inst.Operand(i)
	}

	children := make([]*Node, 0, len(vals))
	for _, v := range vals {
		children = append(children, buildOperand(v, inst.Block, parentIsPhiOrCall))
	}

	switch len(children) {
	case 0:
	case 1:
		attach(n, children[0], nil)
	case 2:
		attach(n, children[0], children[1])
	default:
		attach(n, children[0], buildListChain(children[1:]))
	}
	return n
}

// buildListChain builds the right-leaning synthetic list-node chain spec.md
// §4.1 describes for instructions with more than two data operands (a call,
// a phi, an indexed memory op).
func buildListChain(children []*Node) *Node {
	if len(children) == 1 {
		return children[0]
	}
	list := newListNode()
	attach(list, children[0], buildListChain(children[1:]))
	return list
}

func buildOperand(v *ir.Value, blk *ir.BasicBlock, parentIsPhiOrCall bool) *Node {
	if v == nil {
		return nil
	}
	switch v.ValueKind() {
	case ir.ConstValue:
		return newConstLeaf(v)
	case ir.BlockLabelValue:
		return newLabelLeaf(v.Block)
	case ir.InstrValue:
		o := v.Instr
		if !parentIsPhiOrCall && o.Block == blk && v.HasOneUse() && !o.IsPhi() && !o.IsCall() {
			return buildInstrNode(o)
		}
		return newVRegLeaf(v)
	default: // global, function, argument, machine temp
		return newVRegLeaf(v)
	}
}
