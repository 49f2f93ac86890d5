package ir

// ValueKind tags the variant of a Value (spec.md §3's enumerated value
// kinds: constant, global symbol, function, basic block label, function
// argument, instruction result, machine-level temporary). MachineTemp
// values are minted by the back-end itself (spec.md §3 "Lifecycles") and
// never appear in front-end-produced IR.
type ValueKind int

const (
	ConstValue ValueKind = iota
	GlobalValue
	FunctionValue
	BlockLabelValue
	ArgValue
	InstrValue
	MachineTempValue
)

// Use links one operand slot back to the Value it reads, and is threaded
// into that Value's intrusive use-list (spec.md §3 invariant: "Every use is
// reachable from the used value's use-list exactly once. Uses are never
// dangling: creating a use links it to the value; destruction unlinks it.").
type Use struct {
	Value    *Value
	User     *Instruction
	Operand  int
	prev, next *Use
}

// Value is a tagged-variant SSA value (spec.md §9: replace virtual dispatch
// over a Value/Instruction/... hierarchy with a sum type).
type Value struct {
	Kind Kind2
	Type *Type

	id int

	// ConstValue
	ConstInt   int64
	ConstFloat float64

	// GlobalValue / FunctionValue
	Name string

	// BlockLabelValue
	Block *BasicBlock

	// ArgValue
	ArgFunc  *Function
	ArgIndex int

	// InstrValue
	Instr *Instruction

	firstUse, lastUse *Use
	kindTag           ValueKind
}

// Kind2 exists only to avoid a name clash between ir.Kind (type kind) and
// the value-kind tag; Value.kindTag is the one actually consulted.
type Kind2 = Kind

func (v *Value) ValueKind() ValueKind { return v.kindTag }

func (v *Value) ID() int { return v.id }

var nextValueID = 1

func allocID() int {
	id := nextValueID
	nextValueID++
	return id
}

func NewConstInt(t *Type, v int64) *Value {
	return &Value{kindTag: ConstValue, Type: t, ConstInt: v, id: allocID()}
}

func NewConstFloat(t *Type, v float64) *Value {
	return &Value{kindTag: ConstValue, Type: t, ConstFloat: v, id: allocID()}
}

func NewGlobal(name string, t *Type) *Value {
	return &Value{kindTag: GlobalValue, Type: t, Name: name, id: allocID()}
}

func NewFunctionValue(name string, t *Type) *Value {
	return &Value{kindTag: FunctionValue, Type: t, Name: name, id: allocID()}
}

func newBlockLabel(b *BasicBlock) *Value {
	return &Value{kindTag: BlockLabelValue, Type: TVoid, Block: b, id: allocID()}
}

func newArgValue(f *Function, idx int, t *Type) *Value {
	return &Value{kindTag: ArgValue, Type: t, ArgFunc: f, ArgIndex: idx, id: allocID()}
}

// NewMachineTemp mints a back-end-owned temporary value (spec.md §3
// "machine-level temporary"), used for spill/cast/copy scratch values. Its
// lifecycle is owned by the mir.InstrCode that created it, not by any
// front-end construct.
func NewMachineTemp(t *Type) *Value {
	return &Value{kindTag: MachineTempValue, Type: t, id: allocID()}
}

func newInstrValue(i *Instruction) *Value {
	return &Value{kindTag: InstrValue, Type: i.ResultType, Instr: i, id: allocID()}
}

// Uses returns a snapshot slice of the value's current uses, in use-list
// order. Mutating the returned slice has no effect on the value.
func (v *Value) Uses() []*Use {
	var out []*Use
	for u := v.firstUse; u != nil; u = u.next {
		out = append(out, u)
	}
	return out
}

func (v *Value) NumUses() int {
	n := 0
	for u := v.firstUse; u != nil; u = u.next {
		n++
	}
	return n
}

// HasOneUse reports whether v has exactly one use — the fold predicate of
// spec.md §4.1.
func (v *Value) HasOneUse() bool {
	return v.firstUse != nil && v.firstUse.next == nil
}

func (v *Value) addUse(u *Use) {
	u.Value = v
	u.prev = v.lastUse
	u.next = nil
	if v.lastUse != nil {
		v.lastUse.next = u
	} else {
		v.firstUse = u
	}
	v.lastUse = u
}

func (v *Value) removeUse(u *Use) {
	if u.prev != nil {
		u.prev.next = u.next
	} else {
		v.firstUse = u.next
	}
	if u.next != nil {
		u.next.prev = u.prev
	} else {
		v.lastUse = u.prev
	}
	u.prev, u.next, u.Value = nil, nil, nil
}

// setOperand points use's Value at val, unlinking from any previous value
// first. Used by the Instruction constructors below.
func setOperand(u *Use, val *Value) {
	if u.Value != nil {
		u.Value.removeUse(u)
	}
	if val != nil {
		val.addUse(u)
	}
}
