// Package forest groups single-use SSA instruction chains within a basic
// block into trees and labels each tree node for the pattern matcher
// (spec.md §1 component C5, §4.1 "Instruction forest").
package forest

import "github.com/kestrelcc/kestrel/internal/ir"

// Label is a tree node's op-label: either an IR opcode or one of the
// synthetic labels spec.md §4.1 calls out (list nodes, leaf kinds, and
// opcode specialisations).
type Label int

const (
	firstSynthetic Label = 1000 + iota

	LabelList // synthetic right-leaning list node for >2 data operands

	LabelConstLeaf
	LabelVRegLeaf
	LabelBlockLabelLeaf

	LabelRetValue  // ret with a value
	LabelCondBranch // conditional branch
	LabelSetCC      // shared label for all six set-comparisons
	LabelAllocaN    // alloca with a non-constant size

	LabelIndexedLoad // load with a non-empty index vector
	LabelIndexedGEP  // getelementptr with a non-empty index vector

	// Cast specialisations, one per destination primitive shape.
	LabelCastToBool
	LabelCastToU8
	LabelCastToS8
	LabelCastToU16
	LabelCastToS16
	LabelCastToU32
	LabelCastToS32
	LabelCastToU64
	LabelCastToS64
	LabelCastToFloat
	LabelCastToDouble
	LabelCastToPointer

	// Bitwise (non-boolean operand type) vs logical (boolean) and/or/xor/not.
	LabelBitwiseAnd
	LabelLogicalAnd
	LabelBitwiseOr
	LabelLogicalOr
	LabelBitwiseXor
	LabelLogicalXor
	LabelBitwiseNot
	LabelLogicalNot
)

// labelFor computes inst's op-label per spec.md §4.1's specialisation list.
// Anything not explicitly called out falls through to its raw IR opcode —
// forest construction never fails on an unrecognised shape.
func labelFor(inst *ir.Instruction) Label {
	switch inst.Op {
	case ir.OpRet:
		if inst.NumOperands() == 1 {
			return LabelRetValue
		}
	case ir.OpCondBr:
		return LabelCondBranch
	case ir.OpICmpEQ, ir.OpICmpNE, ir.OpICmpSLT, ir.OpICmpSLE, ir.OpICmpSGT, ir.OpICmpSGE:
		return LabelSetCC
	case ir.OpAlloca:
		if inst.AllocaNonConstSize != nil {
			return LabelAllocaN
		}
	case ir.OpLoad:
		if len(inst.GEPIndices) > 0 {
			return LabelIndexedLoad
		}
	case ir.OpGetElementPtr:
		if len(inst.GEPIndices) > 0 {
			return LabelIndexedGEP
		}
	case ir.OpCast:
		return castLabel(inst.CastKind, inst.ResultType)
	case ir.OpAnd:
		return boolSplit(inst, LabelBitwiseAnd, LabelLogicalAnd)
	case ir.OpOr:
		return boolSplit(inst, LabelBitwiseOr, LabelLogicalOr)
	case ir.OpXor:
		return boolSplit(inst, LabelBitwiseXor, LabelLogicalXor)
	case ir.OpNot:
		return boolSplit(inst, LabelBitwiseNot, LabelLogicalNot)
	}
	return Label(inst.Op)
}

func boolSplit(inst *ir.Instruction, bitwise, logical Label) Label {
	if inst.ResultType != nil && inst.ResultType.Kind == ir.Bool {
		return logical
	}
	return bitwise
}

func castLabel(kind ir.CastKind, dst *ir.Type) Label {
	if dst == nil {
		return Label(ir.OpCast)
	}
	switch dst.Kind {
	case ir.Bool:
		return LabelCastToBool
	case ir.UInt8:
		return LabelCastToU8
	case ir.Int8:
		return LabelCastToS8
	case ir.UInt16:
		return LabelCastToU16
	case ir.Int16:
		return LabelCastToS16
	case ir.UInt32:
		return LabelCastToU32
	case ir.Int32:
		return LabelCastToS32
	case ir.UInt64:
		return LabelCastToU64
	case ir.Int64:
		return LabelCastToS64
	case ir.Float:
		return LabelCastToFloat
	case ir.Double:
		return LabelCastToDouble
	case ir.Pointer:
		return LabelCastToPointer
	default:
		_ = kind
		return Label(ir.OpCast)
	}
}
