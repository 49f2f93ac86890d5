package mir

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Instr is one machine instruction: opcode + ordered operand vector +
// ordered implicit-reference vector (spec.md §3 "Machine instruction").
type Instr struct {
	Op       target.Opcode
	Operands []*Operand
	Implicit []*Operand

	CallArgs *CallArgsDescriptor // non-nil only for call MIs

	// Source is the IR instruction this MI was generated for, or nil for
	// MIs the back-end minted outside selection (spill/reload, caller-save,
	// entry-argument and phi copies). Selector-emitted NOPs carry the
	// Source of the root they were emitted for.
	Source *ir.Instruction

	block      *Block
	prev, next *Instr

	// IsNop marks a placeholder the scheduler may erase once delay slots
	// are filled with real instructions (spec.md §4.4).
	IsNop bool
}

func (m *Instr) Block() *Block { return m.block }
func (m *Instr) Next() *Instr  { return m.next }
func (m *Instr) Prev() *Instr  { return m.prev }

// Defs/Uses return the operand+implicit slots with the given flag set,
// convenience accessors used throughout C7-C10.
func (m *Instr) Defs() []*Operand { return filterOperands(m, func(o *Operand) bool { return o.IsDef }) }
func (m *Instr) Uses() []*Operand { return filterOperands(m, func(o *Operand) bool { return o.IsUse }) }

func filterOperands(m *Instr, pred func(*Operand) bool) []*Operand {
	var out []*Operand
	for _, o := range m.Operands {
		if pred(o) {
			out = append(out, o)
		}
	}
	for _, o := range m.Implicit {
		if pred(o) {
			out = append(out, o)
		}
	}
	return out
}
