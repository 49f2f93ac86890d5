package instsel

import (
	"math"

	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// constOperand names a constant leaf as a raw immediate. Whether that
// immediate actually fits the consuming opcode's field is decided at the
// use site (arith.go's rhsOperand), since the immediate-field width is
// a property of the opcode, not the constant.
func (s *Selector) constOperand(v *ir.Value) *mir.Operand {
	if v.Type.IsFloatingPoint() {
		return mir.SExtImm(int64(math.Float64bits(v.ConstFloat)))
	}
	return mir.SExtImm(v.ConstInt)
}

// materializeConst loads a 64-bit integer constant into a fresh register via
// the set-high-then-or expansion of spec.md §4.2 ("otherwise they are
// materialised by a set-high-then-or sequence (four-instruction expansion
// for 64-bit constants)"): high 16 bits, next 16 bits, a 32-bit shift, then
// the low 32 bits.
func (s *Selector) materializeConst(v int64, class target.RegClass) *mir.Operand {
	dst := s.newTemp(classType(class))

	s.emit(&mir.Instr{
		Op:       target.SetHigh,
		Operands: []*mir.Operand{s.resultOperand(dst), mir.UImm((v >> 48) & 0xffff)},
	})
	s.emit(&mir.Instr{
		Op:       target.OrImm,
		Operands: []*mir.Operand{s.resultOperand(dst), s.vregOperand(dst), mir.UImm((v >> 32) & 0xffff)},
	})
	s.emit(&mir.Instr{
		Op:       target.ShiftLeftLogical,
		Operands: []*mir.Operand{s.resultOperand(dst), s.vregOperand(dst), mir.UImm(32)},
	})
	s.emit(&mir.Instr{
		Op:       target.OrImm,
		Operands: []*mir.Operand{s.resultOperand(dst), s.vregOperand(dst), mir.UImm(v & 0xffffffff)},
	})
	return s.vregOperand(dst)
}

func classType(c target.RegClass) *ir.Type {
	if c == target.FloatClass {
		return ir.TDouble
	}
	return ir.TInt64
}
