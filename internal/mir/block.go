package mir

import "github.com/kestrelcc/kestrel/internal/ir"

// Block is the machine code for one basic block: an ordered mutable list
// of MIs (spec.md §3 "Machine code for a basic block"). Unlike ir.BasicBlock
// this uses a slice rather than an intrusive list because the scheduler
// (C9) and the register-allocator patcher (C10) both rewrite the order and
// splice instructions in bulk; a slice with an explicit relink is simpler to
// reason about for that than maintaining prev/next links under heavy
// mutation.
type Block struct {
	Source *ir.BasicBlock
	Instrs []*Instr
}

func NewBlock(src *ir.BasicBlock) *Block {
	return &Block{Source: src}
}

// Append adds mi as the new last instruction.
func (b *Block) Append(mi *Instr) {
	mi.block = b
	b.Instrs = append(b.Instrs, mi)
	b.relink()
}

// InsertBefore inserts mi immediately before the instruction at index idx.
func (b *Block) InsertBefore(idx int, mi *Instr) {
	b.Instrs = append(b.Instrs, nil)
	copy(b.Instrs[idx+1:], b.Instrs[idx:])
	b.Instrs[idx] = mi
	mi.block = b
	b.relink()
}

// InsertAfter inserts mi immediately after the instruction at index idx.
func (b *Block) InsertAfter(idx int, mi *Instr) {
	b.InsertBefore(idx+1, mi)
}

// IndexOf returns the position of mi in the block, or -1.
func (b *Block) IndexOf(mi *Instr) int {
	for i, m := range b.Instrs {
		if m == mi {
			return i
		}
	}
	return -1
}

// Remove deletes the instruction at idx.
func (b *Block) Remove(idx int) {
	b.Instrs[idx].block = nil
	b.Instrs = append(b.Instrs[:idx], b.Instrs[idx+1:]...)
	b.relink()
}

// Reorder replaces the block's instruction order wholesale, e.g. after
// scheduling (spec.md §4.4 "Rewrite the basic block's MI list in schedule
// order").
func (b *Block) Reorder(order []*Instr) {
	b.Instrs = order
	b.relink()
}

func (b *Block) relink() {
	var prev *Instr
	for _, mi := range b.Instrs {
		mi.prev = prev
		if prev != nil {
			prev.next = mi
		}
		mi.next = nil
		prev = mi
	}
}

func (b *Block) First() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[0]
}

func (b *Block) Last() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}
