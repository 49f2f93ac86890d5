package instsel

import (
	"github.com/kestrelcc/kestrel/internal/forest"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// lowerAlloca reserves a frame slot for a fixed-size alloca and computes
// its address as register 0 plus the slot offset, or (for alloca-n,
// spec.md §4.1) emits a single Sub of the lowered size from register 0.
func (s *Selector) lowerAlloca(n *forest.Node) *mir.Operand {
	inst := n.Inst
	dst := resultValue(inst, s)
	if inst.AllocaNonConstSize != nil {
		size := s.lowerTree(n.Left)
		s.emit(&mir.Instr{Op: target.Sub, Operands: []*mir.Operand{s.resultOperand(dst), mir.MReg(0, target.IntClass, false, true), size}})
		return s.vregOperand(dst)
	}
	elemType := inst.ResultType.Elem
	slot := s.MF.AllocFrameSlot(elemType.SizeBytes())
	s.emit(&mir.Instr{Op: target.AddImm, Operands: []*mir.Operand{s.resultOperand(dst), mir.MReg(0, target.IntClass, false, true), mir.SExtImm(int64(slot))}})
	return s.vregOperand(dst)
}

// lowerGEP folds an all-constant index vector into an immediate offset,
// added to the base pointer; the first non-constant index is scaled by
// element size with a ShiftLeftLogical (power-of-two size) or a MulImm
// (any other size) and added to the base (spec.md §4.2 "Memory-ref
// addressing"). The scaled index is not sign-extended, and the constant
// offset of indices before it is not added.
func (s *Selector) lowerGEP(n *forest.Node) *mir.Operand {
	inst := n.Inst
	base := s.lowerTree(n.Left)
	dst := resultValue(inst, s)

	off, variable := s.gepOffset(inst, n.Right)
	if variable == nil {
		s.emit(&mir.Instr{Op: target.AddImm, Operands: []*mir.Operand{s.resultOperand(dst), base, mir.SExtImm(off)}})
		return s.vregOperand(dst)
	}
	s.emit(&mir.Instr{Op: target.Add, Operands: []*mir.Operand{s.resultOperand(dst), base, variable}})
	return s.vregOperand(dst)
}

// gepOffset walks the GEP's index operands (carried as a list-node chain
// when there is more than one), returning a constant byte offset when every
// index is constant, or a scaled register operand for the first
// non-constant index encountered.
func (s *Selector) gepOffset(inst *ir.Instruction, indexTree *forest.Node) (int64, *mir.Operand) {
	indices := s.lowerOperandList(indexTree)
	elemType := inst.Operand(0).Type
	if elemType.IsPointer() {
		elemType = elemType.Elem
	}
	var constOff int64
	for i, idxOp := range indices {
		idxVal := inst.GEPIndices[i]
		switch {
		case idxVal.ValueKind() == ir.ConstValue:
			constOff += fieldOffset(elemType, idxVal)
			elemType = stepType(elemType, idxVal)
		default:
			scaled := s.newTemp(ir.TInt64)
			elemSize := elemType.SizeBytes()
			if shift, ok := log2(int64(elemSize)); ok {
				s.emit(&mir.Instr{Op: target.ShiftLeftLogical, Operands: []*mir.Operand{s.resultOperand(scaled), idxOp, mir.UImm(int64(shift))}})
			} else {
				s.emit(&mir.Instr{Op: target.MulImm, Operands: []*mir.Operand{s.resultOperand(scaled), idxOp, mir.SExtImm(int64(elemSize))}})
			}
			return constOff, s.vregOperand(scaled)
		}
	}
	return constOff, nil
}

func fieldOffset(t *ir.Type, idx *ir.Value) int64 {
	switch t.Kind {
	case ir.Struct:
		field := int(idx.ConstInt)
		off := 0
		for i := 0; i < field && i < len(t.Fields); i++ {
			off += t.Fields[i].SizeBytes()
		}
		return int64(off)
	case ir.Array:
		return idx.ConstInt * int64(t.Elem.SizeBytes())
	default:
		return idx.ConstInt * int64(t.SizeBytes())
	}
}

func stepType(t *ir.Type, idx *ir.Value) *ir.Type {
	switch t.Kind {
	case ir.Struct:
		field := int(idx.ConstInt)
		if field < len(t.Fields) {
			return t.Fields[field]
		}
		return t
	case ir.Array:
		return t.Elem
	default:
		return t
	}
}

func (s *Selector) lowerLoad(n *forest.Node) *mir.Operand {
	inst := n.Inst
	dst := resultValue(inst, s)
	if len(inst.GEPIndices) > 0 {
		base := s.lowerTree(n.Left)
		off, variable := s.gepOffset(inst, n.Right)
		if variable == nil {
			s.emit(&mir.Instr{Op: target.Load, Operands: []*mir.Operand{s.resultOperand(dst), base, mir.SExtImm(off)}})
		} else {
			s.emit(&mir.Instr{Op: target.LoadIndexed, Operands: []*mir.Operand{s.resultOperand(dst), base, variable}})
		}
		return s.vregOperand(dst)
	}
	ptr := s.lowerTree(n.Left)
	s.emit(&mir.Instr{Op: target.Load, Operands: []*mir.Operand{s.resultOperand(dst), ptr, mir.SExtImm(0)}})
	return s.vregOperand(dst)
}

func (s *Selector) lowerStore(n *forest.Node) *mir.Operand {
	val := s.lowerTree(n.Left)
	ptr := s.lowerTree(n.Right)
	s.emit(&mir.Instr{Op: target.Store, Operands: []*mir.Operand{ptr, val}})
	return nil
}
