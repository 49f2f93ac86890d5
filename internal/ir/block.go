package ir

// BasicBlock is an ordered, non-empty sequence of instructions terminated
// by exactly one terminator (spec.md §3 "Basic block"). Instructions are
// owned by the block via an intrusive doubly-linked sequence so that
// folding/scheduling/patching passes downstream can splice in O(1).
type BasicBlock struct {
	Name  string
	Func  *Function
	Label *Value

	first, last *Instruction
	count       int
}

func newBasicBlock(f *Function, name string) *BasicBlock {
	b := &BasicBlock{Name: name, Func: f}
	b.Label = newBlockLabel(b)
	return b
}

// Append adds inst as the new last instruction of the block. Appending a
// terminator after an existing terminator is a front-end well-formedness
// violation (spec.md §7: "not detected by the core"); we do not guard it.
func (b *BasicBlock) Append(inst *Instruction) {
	inst.Block = b
	inst.prev = b.last
	inst.next = nil
	if b.last != nil {
		b.last.next = inst
	} else {
		b.first = inst
	}
	b.last = inst
	b.count++
}

func (b *BasicBlock) First() *Instruction { return b.first }
func (b *BasicBlock) Last() *Instruction  { return b.last }
func (b *BasicBlock) Len() int            { return b.count }

// Terminator returns the block's terminator instruction (its last
// instruction, per spec.md §3).
func (b *BasicBlock) Terminator() *Instruction { return b.last }

// Instructions returns the block's instructions in program order.
func (b *BasicBlock) Instructions() []*Instruction {
	out := make([]*Instruction, 0, b.count)
	for i := b.first; i != nil; i = i.next {
		out = append(out, i)
	}
	return out
}

// Successors returns the ordered successor blocks of this block's
// terminator (spec.md §3: "Terminator instructions ... expose ordered
// successor blocks").
func (b *BasicBlock) Successors() []*BasicBlock {
	if b.last == nil {
		return nil
	}
	return b.last.Successors
}

// Next/Prev expose instruction-list iteration for use-def walkers.
func (i *Instruction) Next() *Instruction { return i.next }
func (i *Instruction) Prev() *Instruction { return i.prev }
