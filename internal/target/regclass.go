package target

// PhysReg is a physical register number within its class.
type PhysReg int

// RegisterClass describes one allocatable register file (spec.md §6's
// "second table keyed by register class"). ColourOrder is carried over from
// the original SparcV9 backend's RegClass.cpp rather than derived from a
// raw volatile bitmask (SPEC_FULL.md supplemented feature #2): colouring
// walks this slice in order and picks the first free entry, so callers can
// bias toward volatile registers for call-free ranges and non-volatile ones
// for call-spanning ranges by supplying two different orders and letting
// the allocator pick between them (see internal/regalloc).
type RegisterClass struct {
	Class RegClass

	NumRegs int

	// Volatile[r] is true if physical register r is caller-saved.
	Volatile []bool

	// ColourOrderVolatileFirst and ColourOrderNonVolatileFirst are the two
	// preference orders the allocator chooses between based on whether a
	// live range has call-interference (spec.md §4.5 step 4).
	ColourOrderVolatileFirst    []PhysReg
	ColourOrderNonVolatileFirst []PhysReg

	// DoubleOnlyLo/Hi mark the sub-range of a float class reserved for
	// double-typed live ranges (spec.md §4.5 step 5); zero-length for
	// non-float classes.
	DoubleOnlyLo, DoubleOnlyHi int
}

func (rc *RegisterClass) IsVolatile(r PhysReg) bool {
	if int(r) < 0 || int(r) >= len(rc.Volatile) {
		return false
	}
	return rc.Volatile[r]
}

func (rc *RegisterClass) ColourOrder(callInterference bool) []PhysReg {
	if callInterference {
		return rc.ColourOrderNonVolatileFirst
	}
	return rc.ColourOrderVolatileFirst
}

// Description is the full read-only target description: opcode table,
// register-class tables, issue model. Built once by NewDescription and
// passed by reference into every pass (spec.md §9 "static initialiser").
type Description struct {
	Opcodes [OpcodeCount]OpcodeInfo
	Classes [NumRegClasses]*RegisterClass

	IssueWidth int // W in spec.md §4.4

	// ClassIssueLimit[c] is k_c, the max number of instructions of issue
	// class c that may be issued in one cycle.
	ClassIssueLimit map[int]int

	// MinGap[a][b] is the minimum number of cycles that must separate two
	// consecutive issues of opcode a followed by opcode b (spec.md §4.4).
	MinGap [OpcodeCount][OpcodeCount]int

	NumArgIntRegs   int
	NumArgFloatRegs int
}

func (d *Description) Info(op Opcode) OpcodeInfo { return d.Opcodes[op] }

func (d *Description) Class(c RegClass) *RegisterClass { return d.Classes[c] }

// sequentialRange builds [0..n) as []PhysReg, used to seed colour orders.
func sequentialRange(n int) []PhysReg {
	out := make([]PhysReg, n)
	for i := range out {
		out[i] = PhysReg(i)
	}
	return out
}

func reversed(in []PhysReg) []PhysReg {
	out := make([]PhysReg, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// NewDescription constructs the reference target description of spec.md §1:
// 32 integer registers, 64 single-precision / 32 double-precision float
// registers, two condition-code classes, a 2-wide issue machine with one
// delay slot after branches and calls.
func NewDescription() *Description {
	d := &Description{
		IssueWidth:      2,
		ClassIssueLimit: map[int]int{0: 2, 1: 1}, // issue class 0: general, 1: memory
		NumArgIntRegs:   6,
		NumArgFloatRegs: 6,
	}

	intVolatile := make([]bool, 32)
	for r := 0; r < 14; r++ {
		intVolatile[r] = true // registers 0-13 caller-saved, incl. arg/return regs
	}
	intOrderVol := sequentialRange(32)
	intOrderNonVol := append(append([]PhysReg{}, sequentialRange(32)[14:]...), sequentialRange(32)[:14]...)
	d.Classes[IntClass] = &RegisterClass{
		Class:                       IntClass,
		NumRegs:                     32,
		Volatile:                    intVolatile,
		ColourOrderVolatileFirst:    intOrderVol,
		ColourOrderNonVolatileFirst: intOrderNonVol,
	}

	floatVolatile := make([]bool, 64)
	for r := 0; r < 32; r++ {
		floatVolatile[r] = true
	}
	floatOrderVol := sequentialRange(64)
	floatOrderNonVol := append(append([]PhysReg{}, sequentialRange(64)[32:]...), sequentialRange(64)[:32]...)
	d.Classes[FloatClass] = &RegisterClass{
		Class:                       FloatClass,
		NumRegs:                     64,
		Volatile:                    floatVolatile,
		ColourOrderVolatileFirst:    floatOrderVol,
		ColourOrderNonVolatileFirst: floatOrderNonVol,
		DoubleOnlyLo:                0,
		DoubleOnlyHi:                32, // first 32 double-precision pairs
	}

	ccVolatile := []bool{true, true, true, true}
	d.Classes[IntCCClass] = &RegisterClass{
		Class:                       IntCCClass,
		NumRegs:                     4,
		Volatile:                    ccVolatile,
		ColourOrderVolatileFirst:    sequentialRange(4),
		ColourOrderNonVolatileFirst: reversed(sequentialRange(4)),
	}
	d.Classes[FloatCCClass] = &RegisterClass{
		Class:                       FloatCCClass,
		NumRegs:                     4,
		Volatile:                    ccVolatile,
		ColourOrderVolatileFirst:    sequentialRange(4),
		ColourOrderNonVolatileFirst: reversed(sequentialRange(4)),
	}

	reg := func(op Opcode, mnemonic string, n, result int, latMin, latMax, delays, issueClass, immWidth int, single bool, rc RegClass, roles ...OperandRole) {
		d.Opcodes[op] = OpcodeInfo{
			Mnemonic:     mnemonic,
			NumOperands:  n,
			ResultIndex:  result,
			LatencyMin:   latMin,
			LatencyMax:   latMax,
			DelaySlots:   delays,
			IssueClass:   issueClass,
			SingleIssue:  single,
			ImmWidth:     immWidth,
			ResultClass:  rc,
			OperandRoles: roles,
		}
	}

	reg(Add, "add", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(AddImm, "addi", 3, 0, 1, 1, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(Sub, "sub", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(SubImm, "subi", 3, 0, 1, 1, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(SubCC, "subcc", 3, 0, 1, 1, 0, 0, 13, false, IntCCClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(And, "and", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(AndImm, "andi", 3, 0, 1, 1, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(Or, "or", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(OrImm, "ori", 3, 0, 1, 1, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(Xor, "xor", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(XorImm, "xori", 3, 0, 1, 1, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(Not, "not", 2, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister)
	reg(ShiftLeftLogical, "sll", 3, 0, 1, 1, 0, 0, 6, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(ShiftRightLogical, "srl", 3, 0, 1, 1, 0, 0, 6, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(ShiftRightArith, "sra", 3, 0, 1, 1, 0, 0, 6, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(SetHigh, "sethi", 2, 0, 1, 1, 0, 0, 22, false, IntClass, RoleRegister, RoleImmediate)
	reg(Mul, "mulx", 3, 0, 4, 4, 0, 0, 0, true, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(MulImm, "muli", 3, 0, 4, 4, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)

	reg(MoveIntToInt, "mov", 2, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister)
	reg(MoveFloatToFloat, "fmov", 2, 0, 1, 1, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister)
	reg(NegFloat, "fneg", 2, 0, 1, 1, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister)

	reg(Load, "ld", 3, 0, 2, 3, 0, 1, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(LoadIndexed, "ldx", 3, 0, 2, 3, 0, 1, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(Store, "st", 3, -1, 2, 3, 0, 1, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)
	reg(StoreIndexed, "stx", 3, -1, 2, 3, 0, 1, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)

	reg(Branch, "b", 1, -1, 1, 1, 1, 0, 0, false, IntClass, RoleLabel)
	reg(BranchOnCCEqual, "be", 2, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister, RoleLabel)
	reg(BranchOnCCNotEqual, "bne", 2, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister, RoleLabel)
	reg(BranchOnCCLess, "bl", 2, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister, RoleLabel)
	reg(BranchOnCCLessEqual, "ble", 2, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister, RoleLabel)
	reg(BranchOnCCGreater, "bg", 2, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister, RoleLabel)
	reg(BranchOnCCGreaterEqual, "bge", 2, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister, RoleLabel)
	reg(Jump, "jmp", 1, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister)
	reg(Call, "call", 2, 1, 1, 1, 1, 0, 0, false, IntClass, RoleLabel, RoleRegister)
	reg(CallIndirect, "callr", 2, 1, 1, 1, 1, 0, 0, true, IntClass, RoleRegister, RoleRegister)
	reg(Return, "ret", 1, -1, 1, 1, 1, 0, 0, false, IntClass, RoleRegister)
	reg(Nop, "nop", 0, -1, 1, 1, 0, 0, 0, false, IntClass)

	reg(SetCCEqual, "seteq", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(SetCCNotEqual, "setne", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(SetCCLess, "setlt", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(SetCCLessEqual, "setle", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(SetCCGreater, "setgt", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)
	reg(SetCCGreaterEqual, "setge", 3, 0, 1, 1, 0, 0, 0, false, IntClass, RoleRegister, RoleRegister, RoleRegister)

	reg(FAdd, "fadd", 3, 0, 3, 4, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister, RoleRegister)
	reg(FSub, "fsub", 3, 0, 3, 4, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister, RoleRegister)
	reg(FMul, "fmul", 3, 0, 5, 7, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister, RoleRegister)
	reg(FDiv, "fdiv", 3, 0, 12, 20, 0, 0, 0, true, FloatClass, RoleRegister, RoleRegister, RoleRegister)

	reg(ConvertFloatToIntReg, "fdtoi", 2, 0, 3, 3, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister)
	reg(ConvertIntToFloatReg, "fitod", 2, 0, 3, 3, 0, 0, 0, false, FloatClass, RoleRegister, RoleRegister)

	reg(MaskLow, "mask", 3, 0, 1, 1, 0, 0, 13, false, IntClass, RoleRegister, RoleRegister, RoleImmediate)

	// Minimum issue gap: by default instructions may co-issue (gap 0), except
	// that nothing may issue in the same cycle as a single-issue opcode
	// (FDiv, CallIndirect) — spec.md §4.4.
	for a := Opcode(0); a < OpcodeCount; a++ {
		for b := Opcode(0); b < OpcodeCount; b++ {
			if d.Opcodes[a].SingleIssue {
				d.MinGap[a][b] = 1
			}
		}
	}

	return d
}
