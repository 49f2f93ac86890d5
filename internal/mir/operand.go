// Package mir is the mutable target-level Machine IR that the pattern
// selector (C6) produces and every later pass (C7-C10) mutates in place
// (spec.md §1 component C4).
package mir

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// OperandKind tags the variant of a machine operand (spec.md §3 "Machine
// instruction").
type OperandKind int

const (
	VirtualRegister OperandKind = iota
	ConditionCodeRegister
	MachineRegister
	SignExtendedImmediate
	UnextendedImmediate
	PCRelativeDisplacement
)

// Operand is one slot of a MachineInstr's operand or implicit-ref vector.
// A single struct shape serves both, per spec.md §3: "Implicit refs carry
// the same def/use distinction."
type Operand struct {
	Kind OperandKind

	// Value backs VirtualRegister/ConditionCodeRegister operands (the SSA
	// value the vreg refers to) and PCRelativeDisplacement operands that
	// name a label or symbol rather than a raw integer.
	Value *ir.Value

	// ImmInt backs SignExtendedImmediate/UnextendedImmediate operands, and
	// PCRelativeDisplacement operands that are a raw integer offset.
	ImmInt int64

	Class target.RegClass

	IsDef bool
	IsUse bool

	// Filled in by internal/regalloc.
	Assigned       bool
	Phys           target.PhysReg
	HasSpillOffset bool
	SpillOffset    int
}

func VReg(v *ir.Value, class target.RegClass, isDef, isUse bool) *Operand {
	return &Operand{Kind: VirtualRegister, Value: v, Class: class, IsDef: isDef, IsUse: isUse}
}

func CCReg(v *ir.Value, class target.RegClass, isDef, isUse bool) *Operand {
	return &Operand{Kind: ConditionCodeRegister, Value: v, Class: class, IsDef: isDef, IsUse: isUse}
}

func MReg(r target.PhysReg, class target.RegClass, isDef, isUse bool) *Operand {
	return &Operand{Kind: MachineRegister, Phys: r, Class: class, Assigned: true, IsDef: isDef, IsUse: isUse}
}

func SExtImm(v int64) *Operand {
	return &Operand{Kind: SignExtendedImmediate, ImmInt: v, IsUse: true}
}

func UImm(v int64) *Operand {
	return &Operand{Kind: UnextendedImmediate, ImmInt: v, IsUse: true}
}

func PCRelLabel(v *ir.Value) *Operand {
	return &Operand{Kind: PCRelativeDisplacement, Value: v, IsUse: true}
}

func PCRelOffset(v int64) *Operand {
	return &Operand{Kind: PCRelativeDisplacement, ImmInt: v, IsUse: true}
}

// IsRegister reports whether this operand occupies a register (as opposed
// to an immediate or PC-relative constant), i.e. whether it participates in
// live-range/interference construction.
func (o *Operand) IsRegister() bool {
	return o.Kind == VirtualRegister || o.Kind == ConditionCodeRegister || o.Kind == MachineRegister
}

// ArgPlacement classifies how one call argument is passed, per spec.md
// §4.2's call-args-descriptor.
type ArgPlacement int

const (
	ArgInIntReg ArgPlacement = iota
	ArgInFloatReg
	ArgOnStack
	ArgInBoth // varargs with no prototype: copied to both an FP and an int register
)

// CallArgsDescriptor annotates a call MI with the placement decided for
// each argument value, in argument order.
type CallArgsDescriptor struct {
	Placements []ArgPlacement
}
