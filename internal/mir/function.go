package mir

import "github.com/kestrelcc/kestrel/internal/ir"

// InstrCode is the machine code generated for one IR instruction: its
// ordered MI sequence, plus any temporary SSA values the back-end minted
// while lowering it (spec/SPEC_FULL.md supplemented feature #3, grounded on
// the original MachineCodeForInstruction.cpp: spill/cast/copy temporaries
// are owned by the originating instruction's record and freed with it,
// rather than living in one flat function-wide pool).
type InstrCode struct {
	Source *ir.Instruction
	MIs    []*Instr
	Temps  []*ir.Value
}

func (c *InstrCode) NewTemp(t *ir.Type) *ir.Value {
	v := ir.NewMachineTemp(t)
	c.Temps = append(c.Temps, v)
	return v
}

// Function is the machine code for an entire IR function: one Block per IR
// basic block, plus the per-instruction machine-code records.
type Function struct {
	Source *ir.Function

	Blocks   []*Block
	blockOf  map[*ir.BasicBlock]*Block
	codeOf   map[*ir.Instruction]*InstrCode
	FrameLocalsSize int // grows as spill slots / scratch slots are allocated
}

func NewFunction(src *ir.Function) *Function {
	f := &Function{
		Source:  src,
		blockOf: make(map[*ir.BasicBlock]*Block),
		codeOf:  make(map[*ir.Instruction]*InstrCode),
	}
	for _, b := range src.Blocks {
		mb := NewBlock(b)
		f.Blocks = append(f.Blocks, mb)
		f.blockOf[b] = mb
	}
	return f
}

func (f *Function) BlockFor(b *ir.BasicBlock) *Block { return f.blockOf[b] }

func (f *Function) CodeFor(i *ir.Instruction) *InstrCode {
	c := f.codeOf[i]
	if c == nil {
		c = &InstrCode{Source: i}
		f.codeOf[i] = c
	}
	return c
}

// AllocFrameSlot reserves n bytes in the local variable area and returns
// the new slot's offset from the frame pointer (spec.md §4.5 "frame offset
// via the local-variable area").
func (f *Function) AllocFrameSlot(n int) int {
	off := f.FrameLocalsSize
	f.FrameLocalsSize += n
	return off
}

// AllInstrs iterates every MI across every block in program order, used by
// passes that need a flat view (e.g. final emission).
func (f *Function) AllInstrs(yield func(b *Block, mi *Instr)) {
	for _, b := range f.Blocks {
		for _, mi := range b.Instrs {
			yield(b, mi)
		}
	}
}
