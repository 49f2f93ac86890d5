package ir

// Builder is a convenience front-end-side constructor for basic blocks. It
// is not part of the core's contract (spec.md §6: "No ... format is
// dictated for this input"); internal/fixture and tests use it to produce
// well-formed SSA IR for the core to consume.
type Builder struct {
	Block *BasicBlock
}

func NewBuilder(b *BasicBlock) *Builder { return &Builder{Block: b} }

func (b *Builder) emit(inst *Instruction) *Value {
	b.Block.Append(inst)
	return inst.result
}

func (b *Builder) binOp(op Opcode, t *Type, lhs, rhs *Value) *Value {
	return b.emit(newInstruction(op, t, []*Value{lhs, rhs}))
}

func (b *Builder) Add(t *Type, lhs, rhs *Value) *Value  { return b.binOp(OpAdd, t, lhs, rhs) }
func (b *Builder) Sub(t *Type, lhs, rhs *Value) *Value  { return b.binOp(OpSub, t, lhs, rhs) }
func (b *Builder) Mul(t *Type, lhs, rhs *Value) *Value  { return b.binOp(OpMul, t, lhs, rhs) }
func (b *Builder) SDiv(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpSDiv, t, lhs, rhs) }
func (b *Builder) UDiv(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpUDiv, t, lhs, rhs) }
func (b *Builder) SRem(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpSRem, t, lhs, rhs) }
func (b *Builder) URem(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpURem, t, lhs, rhs) }
func (b *Builder) And(t *Type, lhs, rhs *Value) *Value  { return b.binOp(OpAnd, t, lhs, rhs) }
func (b *Builder) Or(t *Type, lhs, rhs *Value) *Value   { return b.binOp(OpOr, t, lhs, rhs) }
func (b *Builder) Xor(t *Type, lhs, rhs *Value) *Value  { return b.binOp(OpXor, t, lhs, rhs) }
func (b *Builder) Shl(t *Type, lhs, rhs *Value) *Value  { return b.binOp(OpShl, t, lhs, rhs) }
func (b *Builder) LShr(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpLShr, t, lhs, rhs) }
func (b *Builder) AShr(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpAShr, t, lhs, rhs) }
func (b *Builder) FAdd(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpFAdd, t, lhs, rhs) }
func (b *Builder) FSub(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpFSub, t, lhs, rhs) }
func (b *Builder) FMul(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpFMul, t, lhs, rhs) }
func (b *Builder) FDiv(t *Type, lhs, rhs *Value) *Value { return b.binOp(OpFDiv, t, lhs, rhs) }

func (b *Builder) Not(t *Type, v *Value) *Value {
	return b.emit(newInstruction(OpNot, t, []*Value{v}))
}

func (b *Builder) FNeg(t *Type, v *Value) *Value {
	return b.emit(newInstruction(OpFNeg, t, []*Value{v}))
}

func (b *Builder) ICmp(op Opcode, lhs, rhs *Value) *Value {
	return b.emit(newInstruction(op, TBool, []*Value{lhs, rhs}))
}

func (b *Builder) Cast(kind CastKind, destType *Type, v *Value) *Value {
	inst := newInstruction(OpCast, destType, []*Value{v})
	inst.CastKind = kind
	return b.emit(inst)
}

func (b *Builder) Alloca(elemType *Type, nonConstSize *Value) *Value {
	inst := newInstruction(OpAlloca, PointerTo(elemType), nil)
	inst.AllocaNonConstSize = nonConstSize
	return b.emit(inst)
}

func (b *Builder) Load(t *Type, ptr *Value, indices ...*Value) *Value {
	operands := append([]*Value{ptr}, indices...)
	inst := newInstruction(OpLoad, t, operands)
	inst.GEPIndices = indices
	return b.emit(inst)
}

func (b *Builder) Store(val, ptr *Value, indices ...*Value) {
	operands := append([]*Value{val, ptr}, indices...)
	inst := newInstruction(OpStore, TVoid, operands)
	inst.GEPIndices = indices
	b.emit(inst)
}

func (b *Builder) GEP(resultType *Type, base *Value, indices ...*Value) *Value {
	operands := append([]*Value{base}, indices...)
	inst := newInstruction(OpGetElementPtr, resultType, operands)
	inst.GEPIndices = indices
	return b.emit(inst)
}

func (b *Builder) Call(retType *Type, callee *Value, args ...*Value) *Value {
	operands := append([]*Value{callee}, args...)
	return b.emit(newInstruction(OpCall, retType, operands))
}

func (b *Builder) Phi(t *Type, incoming ...*Value) *Value {
	return b.emit(newInstruction(OpPhi, t, incoming))
}

func (b *Builder) Br(target *BasicBlock) {
	inst := newInstruction(OpBr, TVoid, nil)
	inst.Successors = []*BasicBlock{target}
	b.emit(inst)
}

func (b *Builder) CondBr(cond *Value, thenBlock, elseBlock *BasicBlock) {
	inst := newInstruction(OpCondBr, TVoid, []*Value{cond})
	inst.Successors = []*BasicBlock{thenBlock, elseBlock}
	b.emit(inst)
}

func (b *Builder) Ret(v *Value) {
	b.emit(newInstruction(OpRet, TVoid, []*Value{v}))
}

func (b *Builder) RetVoid() {
	b.emit(newInstruction(OpRetVoid, TVoid, nil))
}
