package ir

// Opcode is the IR-level opcode space (distinct from target.Opcode, which
// is the machine-level opcode space the selector lowers into).
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpNot
	OpShl
	OpLShr
	OpAShr
	OpLoad
	OpStore
	OpGetElementPtr
	OpAlloca
	OpCall
	OpPhi
	OpBr
	OpCondBr
	OpRet
	OpRetVoid
	OpICmpEQ
	OpICmpNE
	OpICmpSLT
	OpICmpSLE
	OpICmpSGT
	OpICmpSGE
	OpCast
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFNeg
)

// CastKind further tags an OpCast instruction with its source/destination
// shape, used by the op-label specialisation of spec.md §4.1.
type CastKind int

const (
	CastSIToFP CastKind = iota
	CastUIToFP
	CastFPToSI
	CastFPToUI
	CastIntTrunc
	CastSExt
	CastZExt
	CastPtrToInt
	CastIntToPtr
	CastBitcast
)

// Instruction is a tagged-variant SSA instruction: an opcode, an ordered
// operand vector of Uses, attached to exactly one basic block via an
// intrusive sequence (spec.md §3 "Instruction").
type Instruction struct {
	Op         Opcode
	ResultType *Type
	Operands   []*Use

	CastKind CastKind // valid iff Op == OpCast

	// Successors, valid iff this Instruction is the block's terminator.
	Successors []*BasicBlock

	// AllocaNonConstSize, valid iff Op == OpAlloca and the size is non-constant
	// (spec.md §4.1 "alloca-n"); when nil the alloca has a fixed size
	// implied by ResultType.Elem.
	AllocaNonConstSize *Value

	// GEPIndices records the GEP index operands beyond operand 0 (the base
	// pointer), mirroring spec.md §4.1's "non-empty index vector" test.
	GEPIndices []*Value

	Block      *BasicBlock
	prev, next *Instruction

	result *Value
}

// Result returns the Value this instruction defines, or nil for
// instructions with no result (stores, branches, void calls, ret).
func (i *Instruction) Result() *Value { return i.result }

func (i *Instruction) IsTerminator() bool {
	switch i.Op {
	case OpBr, OpCondBr, OpRet, OpRetVoid:
		return true
	default:
		return false
	}
}

func (i *Instruction) IsPhi() bool  { return i.Op == OpPhi }
func (i *Instruction) IsCall() bool { return i.Op == OpCall }

// NumOperands/Operand give index-based access to the operand Values (not
// the Use wrappers), for passes that only want the value graph.
func (i *Instruction) NumOperands() int { return len(i.Operands) }

func (i *Instruction) Operand(idx int) *Value { return i.Operands[idx].Value }

func (i *Instruction) SetOperand(idx int, v *Value) { setOperand(i.Operands[idx], v) }

func newInstruction(op Opcode, resultType *Type, operands []*Value) *Instruction {
	inst := &Instruction{Op: op, ResultType: resultType}
	inst.Operands = make([]*Use, len(operands))
	for idx, v := range operands {
		u := &Use{User: inst, Operand: idx}
		inst.Operands[idx] = u
		setOperand(u, v)
	}
	if resultType != nil && resultType.Kind != Void {
		inst.result = newInstrValue(inst)
	}
	return inst
}

// destroy unlinks every operand use, matching the "destruction unlinks"
// half of spec.md §3's use invariant. Front-end-owned instructions are
// never destroyed by the core; this exists for the fixture builders and for
// completeness of the intrusive-list contract.
func (i *Instruction) destroy() {
	for _, u := range i.Operands {
		setOperand(u, nil)
	}
}
