package instsel

import (
	"fmt"

	"github.com/kestrelcc/kestrel/internal/forest"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// binOpcodes gives the register-register opcode and, where one exists, the
// register-immediate variant for a binary op-label. Panics if label has no
// rule — spec.md §7's "pattern-match failure" is a fatal assertion at the
// production, not a silently wrong substitute opcode.
func binOpcodes(label forest.Label) (regOp target.Opcode, immOp target.Opcode, hasImm bool) {
	switch label {
	case forest.Label(ir.OpAdd):
		return target.Add, target.AddImm, true
	case forest.Label(ir.OpSub):
		return target.Sub, target.SubImm, true
	case forest.Label(ir.OpMul):
		// No immediate form: lowerConstMul handles constants 0, 1 and
		// powers of two first, and MulImm is emitted only by GEP index
		// scaling (memory.go), so the general path always lowers to the
		// register x register multiply.
		return target.Mul, 0, false
	case forest.LabelBitwiseAnd, forest.LabelLogicalAnd:
		return target.And, target.AndImm, true
	case forest.LabelBitwiseOr, forest.LabelLogicalOr:
		return target.Or, target.OrImm, true
	case forest.LabelBitwiseXor, forest.LabelLogicalXor:
		return target.Xor, target.XorImm, true
	case forest.Label(ir.OpShl):
		return target.ShiftLeftLogical, 0, false
	case forest.Label(ir.OpLShr):
		return target.ShiftRightLogical, 0, false
	case forest.Label(ir.OpAShr):
		return target.ShiftRightArith, 0, false
	case forest.Label(ir.OpFAdd):
		return target.FAdd, 0, false
	case forest.Label(ir.OpFSub):
		return target.FSub, 0, false
	case forest.Label(ir.OpFMul):
		return target.FMul, 0, false
	case forest.Label(ir.OpFDiv):
		return target.FDiv, 0, false
	}
	panic(fmt.Sprintf("instsel: no binary-opcode rule for label %v", label))
}

// rhsOperand lowers a binary op's right child, folding it into an immediate
// operand when it is a constant that fits immOp's field and immOp exists
// (spec.md §4.2: "Constants that fit in the opcode's immediate field become
// immediate operands").
func (s *Selector) rhsOperand(child *forest.Node, immOp target.Opcode, hasImm bool) (*mir.Operand, bool) {
	if hasImm && child.Label == forest.LabelConstLeaf && !child.ConstLeaf.Type.IsFloatingPoint() {
		info := s.Desc.Info(immOp)
		if info.FitsImmediate(child.ConstLeaf.ConstInt) {
			return mir.SExtImm(child.ConstLeaf.ConstInt), true
		}
	}
	return s.lowerTree(child), false
}

func (s *Selector) lowerBinOp(n *forest.Node) *mir.Operand {
	inst := n.Inst

	switch inst.Op {
	case ir.OpMul:
		if op := s.lowerConstMul(n); op != nil {
			return op
		}
	case ir.OpSDiv, ir.OpUDiv:
		if op := s.lowerConstDiv(n); op != nil {
			return op
		}
	case ir.OpSRem, ir.OpURem:
		if op := s.lowerConstRem(n); op != nil {
			return op
		}
	}

	regOp, immOp, hasImm := binOpcodes(n.Label)
	lhs := s.lowerTree(n.Left)
	rhs, usedImm := s.rhsOperand(n.Right, immOp, hasImm)

	op := regOp
	if usedImm {
		op = immOp
	}

	dst := resultValue(inst, s)
	s.emit(&mir.Instr{
		Op:       op,
		Operands: []*mir.Operand{s.resultOperand(dst), lhs, rhs},
	})
	return s.vregOperand(dst)
}

// resultValue returns the destination SSA value for inst's result, used as
// the VReg identity threaded through the rest of the pipeline.
func resultValue(inst *ir.Instruction, s *Selector) *ir.Value {
	if inst.Result() != nil {
		return inst.Result()
	}
	return s.newTemp(inst.ResultType)
}

func (s *Selector) lowerNot(n *forest.Node) *mir.Operand {
	inst := n.Inst
	src := s.lowerTree(n.Left)
	dst := resultValue(inst, s)
	s.emit(&mir.Instr{Op: target.Not, Operands: []*mir.Operand{s.resultOperand(dst), src}})
	return s.vregOperand(dst)
}

func (s *Selector) lowerFNeg(n *forest.Node) *mir.Operand {
	inst := n.Inst
	src := s.lowerTree(n.Left)
	dst := resultValue(inst, s)
	s.emit(&mir.Instr{Op: target.NegFloat, Operands: []*mir.Operand{s.resultOperand(dst), src}})
	return s.vregOperand(dst)
}

// lowerConstMul implements spec.md §4.2's constant-multiply policy:
// multiplication by a power of two becomes a shift; by 0 becomes a
// zero-write; by 1 becomes a forwarded/copied operand; both operand orders
// are tried. Returns nil when neither operand is a suitable constant, so the
// caller falls back to the general binary-op path.
func (s *Selector) lowerConstMul(n *forest.Node) *mir.Operand {
	constChild, otherChild, ok := pickConstChild(n)
	if !ok || constChild.ConstLeaf.Type.IsFloatingPoint() {
		return nil
	}
	c := constChild.ConstLeaf.ConstInt
	inst := n.Inst
	dst := resultValue(inst, s)

	switch {
	case c == 0:
		s.emit(&mir.Instr{Op: target.AddImm, Operands: []*mir.Operand{s.resultOperand(dst), mir.SExtImm(0), mir.SExtImm(0)}})
		return s.vregOperand(dst)
	case c == 1:
		src := s.lowerTree(otherChild)
		s.emit(&mir.Instr{Op: target.MoveIntToInt, Operands: []*mir.Operand{s.resultOperand(dst), src}})
		return s.vregOperand(dst)
	}
	if shift, isPow2 := log2(c); isPow2 {
		src := s.lowerTree(otherChild)
		s.emit(&mir.Instr{Op: target.ShiftLeftLogical, Operands: []*mir.Operand{s.resultOperand(dst), src, mir.UImm(int64(shift))}})
		return s.vregOperand(dst)
	}
	return nil
}

// lowerConstDiv implements the constant-divide policy: division by a power
// of two becomes an arithmetic (signed) or logical (unsigned) shift.
func (s *Selector) lowerConstDiv(n *forest.Node) *mir.Operand {
	if n.Right.Label != forest.LabelConstLeaf || n.Right.ConstLeaf.Type.IsFloatingPoint() {
		return nil
	}
	c := n.Right.ConstLeaf.ConstInt
	shift, isPow2 := log2(c)
	if !isPow2 {
		return nil
	}
	inst := n.Inst
	lhs := s.lowerTree(n.Left)
	dst := resultValue(inst, s)
	shiftOp := target.ShiftRightLogical
	if inst.Op == ir.OpSDiv {
		shiftOp = target.ShiftRightArith
	}
	s.emit(&mir.Instr{Op: shiftOp, Operands: []*mir.Operand{s.resultOperand(dst), lhs, mir.UImm(int64(shift))}})
	return s.vregOperand(dst)
}

// lowerConstRem implements "remainder is expressed as a - (a/b)*b over
// three MIs, using a temporary" for the power-of-two-divisor case; falls
// back to the general path (handled by lowerBinOp's default) otherwise.
func (s *Selector) lowerConstRem(n *forest.Node) *mir.Operand {
	if n.Right.Label != forest.LabelConstLeaf || n.Right.ConstLeaf.Type.IsFloatingPoint() {
		return nil
	}
	c := n.Right.ConstLeaf.ConstInt
	if _, isPow2 := log2(c); !isPow2 {
		return nil
	}
	inst := n.Inst
	a := s.lowerTree(n.Left)

	shift, _ := log2(c)
	shiftOp := target.ShiftRightLogical
	if inst.Op == ir.OpSRem {
		shiftOp = target.ShiftRightArith
	}

	quot := s.newTemp(inst.ResultType)
	s.emit(&mir.Instr{Op: shiftOp, Operands: []*mir.Operand{s.resultOperand(quot), a, mir.UImm(int64(shift))}})

	scaled := s.newTemp(inst.ResultType)
	s.emit(&mir.Instr{Op: target.ShiftLeftLogical, Operands: []*mir.Operand{s.resultOperand(scaled), s.vregOperand(quot), mir.UImm(int64(shift))}})

	dst := resultValue(inst, s)
	s.emit(&mir.Instr{Op: target.Sub, Operands: []*mir.Operand{s.resultOperand(dst), a, s.vregOperand(scaled)}})
	return s.vregOperand(dst)
}

func pickConstChild(n *forest.Node) (constChild, other *forest.Node, ok bool) {
	if n.Left != nil && n.Left.Label == forest.LabelConstLeaf {
		return n.Left, n.Right, true
	}
	if n.Right != nil && n.Right.Label == forest.LabelConstLeaf {
		return n.Right, n.Left, true
	}
	return nil, nil, false
}

// log2 reports whether c is a positive power of two and, if so, its log.
func log2(c int64) (int, bool) {
	if c <= 0 || c&(c-1) != 0 {
		return 0, false
	}
	shift := 0
	for c > 1 {
		c >>= 1
		shift++
	}
	return shift, true
}
