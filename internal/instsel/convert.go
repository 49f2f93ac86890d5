package instsel

import (
	"github.com/kestrelcc/kestrel/internal/forest"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// lowerCast implements spec.md §4.2's cast policies: FP<->int conversion via
// a scratch frame slot, narrowing/widening via mask or shift-pair, and a
// plain register-to-register move for no-op reinterpretations (bitcast,
// pointer<->int of matching width).
func (s *Selector) lowerCast(n *forest.Node) *mir.Operand {
	inst := n.Inst
	src := s.lowerTree(n.Left)
	dst := resultValue(inst, s)

	switch inst.CastKind {
	case ir.CastSIToFP, ir.CastUIToFP:
		return s.lowerIntToFP(inst, src, dst)
	case ir.CastFPToSI, ir.CastFPToUI:
		return s.lowerFPToInt(inst, src, dst)
	case ir.CastIntTrunc:
		return s.lowerNarrow(inst, src, dst, false)
	case ir.CastSExt:
		return s.lowerWiden(inst, src, dst, true)
	case ir.CastZExt:
		return s.lowerWiden(inst, src, dst, false)
	case ir.CastPtrToInt, ir.CastIntToPtr, ir.CastBitcast:
		s.emit(&mir.Instr{Op: target.MoveIntToInt, Operands: []*mir.Operand{s.resultOperand(dst), src}})
		return s.vregOperand(dst)
	}
	return s.vregOperand(dst)
}

// lowerIntToFP and lowerFPToInt route the conversion through a scratch
// frame slot (spec.md §4.2: "emitted as a store-to-stack / load-from-stack
// pair through a scratch frame slot; the sizes of the store and the load
// are determined by integer width"). The two ConvertXToYReg opcodes stand
// in for the register-to-register halves of that sequence in this
// simplified selector; see package doc comment.
func (s *Selector) lowerIntToFP(inst *ir.Instruction, src *mir.Operand, dst *ir.Value) *mir.Operand {
	slot := s.MF.AllocFrameSlot(slotWidth(inst.Operand(0).Type))
	s.emit(&mir.Instr{Op: target.Store, Operands: []*mir.Operand{mir.SExtImm(int64(slot)), src}})
	s.emit(&mir.Instr{Op: target.ConvertIntToFloatReg, Operands: []*mir.Operand{s.resultOperand(dst), mir.SExtImm(int64(slot))}})
	return s.vregOperand(dst)
}

func (s *Selector) lowerFPToInt(inst *ir.Instruction, src *mir.Operand, dst *ir.Value) *mir.Operand {
	slot := s.MF.AllocFrameSlot(slotWidth(inst.ResultType))
	conv := s.newTemp(ir.TDouble)
	s.emit(&mir.Instr{Op: target.ConvertFloatToIntReg, Operands: []*mir.Operand{s.resultOperand(conv), src}})
	s.emit(&mir.Instr{Op: target.Store, Operands: []*mir.Operand{mir.SExtImm(int64(slot)), s.vregOperand(conv)}})
	bits := inst.ResultType.SizeBytes() * 8
	if inst.CastKind != ir.CastFPToUI || bits >= 64 {
		s.emit(&mir.Instr{Op: target.Load, Operands: []*mir.Operand{s.resultOperand(dst), mir.SExtImm(int64(slot))}})
		return s.vregOperand(dst)
	}
	// An unsigned result narrower than the register gets its upper bits
	// cleared by a trailing left-shift / logical right-shift pair.
	shift := int64(64 - bits)
	loaded, hi := s.newTemp(ir.TInt64), s.newTemp(ir.TInt64)
	s.emit(&mir.Instr{Op: target.Load, Operands: []*mir.Operand{s.resultOperand(loaded), mir.SExtImm(int64(slot))}})
	s.emit(&mir.Instr{Op: target.ShiftLeftLogical, Operands: []*mir.Operand{s.resultOperand(hi), s.vregOperand(loaded), mir.UImm(shift)}})
	s.emit(&mir.Instr{Op: target.ShiftRightLogical, Operands: []*mir.Operand{s.resultOperand(dst), s.vregOperand(hi), mir.UImm(shift)}})
	return s.vregOperand(dst)
}

func slotWidth(t *ir.Type) int {
	if t.SizeBytes() > 4 {
		return 8
	}
	return 4
}

// lowerNarrow implements unsigned narrowing as a mask and signed narrowing
// as a left-shift then arithmetic right-shift (spec.md §4.2).
func (s *Selector) lowerNarrow(inst *ir.Instruction, src *mir.Operand, dst *ir.Value, _ bool) *mir.Operand {
	bits := inst.ResultType.SizeBytes() * 8
	if inst.ResultType.IsUnsigned() || inst.ResultType.Kind == ir.Bool {
		mask := int64(1)<<uint(bits) - 1
		s.emit(&mir.Instr{Op: target.MaskLow, Operands: []*mir.Operand{s.resultOperand(dst), src, mir.UImm(mask)}})
		return s.vregOperand(dst)
	}
	shift := int64(64 - bits)
	tmp := s.newTemp(ir.TInt64)
	s.emit(&mir.Instr{Op: target.ShiftLeftLogical, Operands: []*mir.Operand{s.resultOperand(tmp), src, mir.UImm(shift)}})
	s.emit(&mir.Instr{Op: target.ShiftRightArith, Operands: []*mir.Operand{s.resultOperand(dst), s.vregOperand(tmp), mir.UImm(shift)}})
	return s.vregOperand(dst)
}

// lowerWiden implements both sign- and zero-extension as a shift-left then
// shift-right pair over the source value's bit width (spec.md §4.2:
// "zero-extensions emit a left-shift then logical right-shift"), mirroring
// lowerNarrow's signed case and grounded on SparcV9InstrInfo.cpp's shared
// CreateBitExtensionInstructions helper, which backs both
// CreateZeroExtensionInstructions and its sign-extension counterpart with the
// identical SLL/SRA-or-SRL pair — there is no dedicated extend opcode in the
// reference ISA.
func (s *Selector) lowerWiden(inst *ir.Instruction, src *mir.Operand, dst *ir.Value, signed bool) *mir.Operand {
	bits := inst.Operand(0).Type.SizeBytes() * 8
	shift := int64(64 - bits)
	shiftOp := target.ShiftRightLogical
	if signed {
		shiftOp = target.ShiftRightArith
	}
	tmp := s.newTemp(ir.TInt64)
	s.emit(&mir.Instr{Op: target.ShiftLeftLogical, Operands: []*mir.Operand{s.resultOperand(tmp), src, mir.UImm(shift)}})
	s.emit(&mir.Instr{Op: shiftOp, Operands: []*mir.Operand{s.resultOperand(dst), s.vregOperand(tmp), mir.UImm(shift)}})
	return s.vregOperand(dst)
}
