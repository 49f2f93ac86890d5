package instsel

import (
	"github.com/kestrelcc/kestrel/internal/forest"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

func (s *Selector) lowerRet(n *forest.Node) *mir.Operand {
	inst := n.Inst
	if inst.Op == ir.OpRetVoid {
		s.emit(&mir.Instr{Op: target.Return})
		return nil
	}
	val := s.lowerTree(n.Left)
	s.emit(&mir.Instr{Op: target.MoveIntToInt, Operands: []*mir.Operand{mir.MReg(0, regClassOf(inst.Operand(0).Type), true, false), val}})
	s.emit(&mir.Instr{Op: target.Return})
	return nil
}

func (s *Selector) lowerBr(n *forest.Node) *mir.Operand {
	inst := n.Inst
	target0 := inst.Successors[0].Label
	s.emit(&mir.Instr{Op: target.Jump, Operands: []*mir.Operand{mir.PCRelLabel(target0)}})
	return nil
}

// lowerCondBr implements spec.md §4.2's "Set-compare feeding a branch"
// policies: a set-compare condition, whether or not its operand is a zero
// constant, becomes a SubCC followed by the matching BranchOnCC opcode; no
// single compare-and-branch MI is emitted. Any other condition is tested
// against zero with SubCC and BranchOnCCNotEqual.
func (s *Selector) lowerCondBr(n *forest.Node) *mir.Operand {
	inst := n.Inst
	thenLabel := inst.Successors[0].Label
	elseLabel := inst.Successors[1].Label

	if n.Left.Label == forest.LabelSetCC {
		op := s.lowerSetCCBranch(n.Left)
		s.emit(&mir.Instr{Op: op, Operands: []*mir.Operand{mir.PCRelLabel(thenLabel)}})
		s.emit(&mir.Instr{Op: target.Nop, IsNop: true})
		s.emit(&mir.Instr{Op: target.Jump, Operands: []*mir.Operand{mir.PCRelLabel(elseLabel)}})
		return nil
	}

	cond := s.lowerTree(n.Left)
	s.emit(&mir.Instr{Op: target.SubCC, Operands: []*mir.Operand{mir.CCReg(inst.Operand(0), target.IntCCClass, true, false), cond, mir.SExtImm(0)}})
	s.emit(&mir.Instr{Op: target.BranchOnCCNotEqual, Operands: []*mir.Operand{mir.PCRelLabel(thenLabel)}})
	s.emit(&mir.Instr{Op: target.Nop, IsNop: true})
	s.emit(&mir.Instr{Op: target.Jump, Operands: []*mir.Operand{mir.PCRelLabel(elseLabel)}})
	return nil
}

// lowerSetCCBranch lowers a set-compare node that feeds a branch directly:
// it emits a SubCC of the two operands (a zero constant included) and
// returns the BranchOnCC* opcode for the caller to emit.
func (s *Selector) lowerSetCCBranch(n *forest.Node) target.Opcode {
	inst := n.Inst
	lhs := s.lowerTree(n.Left)
	rhs := s.lowerTree(n.Right)
	ccOp := ccOpcode(inst.Op)
	cc := ir.NewMachineTemp(ir.TBool)
	s.emit(&mir.Instr{Op: target.SubCC, Operands: []*mir.Operand{mir.CCReg(cc, target.IntCCClass, true, false), lhs, rhs}})
	return ccOp
}

func ccOpcode(op ir.Opcode) target.Opcode {
	switch op {
	case ir.OpICmpEQ:
		return target.BranchOnCCEqual
	case ir.OpICmpNE:
		return target.BranchOnCCNotEqual
	case ir.OpICmpSLT:
		return target.BranchOnCCLess
	case ir.OpICmpSLE:
		return target.BranchOnCCLessEqual
	case ir.OpICmpSGT:
		return target.BranchOnCCGreater
	case ir.OpICmpSGE:
		return target.BranchOnCCGreaterEqual
	default:
		return target.BranchOnCCNotEqual
	}
}

// lowerSetCC is the standalone form (a set-compare not directly feeding a
// branch): materialises a 0/1 integer result via the SetCCxx opcode family.
func (s *Selector) lowerSetCC(n *forest.Node) *mir.Operand {
	inst := n.Inst
	lhs := s.lowerTree(n.Left)
	rhs := s.lowerTree(n.Right)
	dst := resultValue(inst, s)
	op := setCCOpcode(inst.Op)
	s.emit(&mir.Instr{Op: op, Operands: []*mir.Operand{s.resultOperand(dst), lhs, rhs}})
	return s.vregOperand(dst)
}

func setCCOpcode(op ir.Opcode) target.Opcode {
	switch op {
	case ir.OpICmpEQ:
		return target.SetCCEqual
	case ir.OpICmpNE:
		return target.SetCCNotEqual
	case ir.OpICmpSLT:
		return target.SetCCLess
	case ir.OpICmpSLE:
		return target.SetCCLessEqual
	case ir.OpICmpSGT:
		return target.SetCCGreater
	default:
		return target.SetCCGreaterEqual
	}
}

// lowerPhi names the phi's result; the copy instructions that actually
// materialise it in each predecessor are inserted by EliminatePhis once
// every block in the function has been lowered (spec.md §4.4's "preserving
// any leading dummy phi-copy MIs verbatim" presupposes exactly this kind of
// pre-scheduling copy insertion pass).
func (s *Selector) lowerPhi(n *forest.Node) *mir.Operand {
	return s.vregOperand(n.Inst.Result())
}

// lowerCall implements spec.md §4.2's call policy: one direct/indirect call
// MI whose first explicit operand is the callee, a NOP delay slot, the
// return-address temporary and the arguments as implicit refs, and a
// call-args-descriptor recording each argument's placement.
func (s *Selector) lowerCall(n *forest.Node) *mir.Operand {
	inst := n.Inst
	callee := inst.Operand(0)

	args := s.lowerOperandList(n.Right)

	desc := &mir.CallArgsDescriptor{}
	intUsed, floatUsed := 0, 0
	for i := 1; i < inst.NumOperands(); i++ {
		arg := inst.Operand(i)
		switch {
		case arg.Type.IsFloatingPoint() && floatUsed < s.Desc.NumArgFloatRegs:
			floatUsed++
			desc.Placements = append(desc.Placements, mir.ArgInFloatReg)
		case !arg.Type.IsFloatingPoint() && intUsed < s.Desc.NumArgIntRegs:
			intUsed++
			desc.Placements = append(desc.Placements, mir.ArgInIntReg)
		default:
			desc.Placements = append(desc.Placements, mir.ArgOnStack)
		}
	}

	retAddr := ir.NewMachineTemp(ir.TInt64)
	implicit := make([]*mir.Operand, 0, len(args)+2)
	implicit = append(implicit, mir.VReg(retAddr, target.IntClass, true, false))
	implicit = append(implicit, args...)

	var dst *ir.Value
	if inst.ResultType != nil && inst.ResultType.Kind != ir.Void {
		dst = resultValue(inst, s)
	}

	mi := &mir.Instr{CallArgs: desc, Implicit: implicit}
	if callee.ValueKind() == ir.FunctionValue {
		mi.Op = target.Call
		mi.Operands = []*mir.Operand{mir.PCRelLabel(callee)}
	} else {
		mi.Op = target.CallIndirect
		calleeOp := s.lowerTree(n.Left)
		mi.Operands = []*mir.Operand{calleeOp}
	}
	if dst != nil {
		mi.Operands = append(mi.Operands, s.resultOperand(dst))
	}
	s.emit(mi)
	s.emit(&mir.Instr{Op: target.Nop, IsNop: true})

	if dst != nil {
		return s.vregOperand(dst)
	}
	return nil
}
