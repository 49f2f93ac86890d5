// Package livevar computes classic backward live-variable data-flow over
// machine IR, one basic block at a time (spec.md §1 component C7). Global
// (cross-block) liveness is out of the core's scope (spec.md §1): callers
// supply each block's live-out set.
package livevar

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
)

// Set is the live-variable set at some program point: the SSA values whose
// virtual-register or condition-code-register operand is live there.
type Set map[*ir.Value]struct{}

func NewSet() Set { return make(Set) }

func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// PerInstr holds, for each MI in a block in program order, the live set
// immediately after it executes — the representation spec.md §4.5's
// interference construction reads directly ("the post-MI live-variable
// set").
type PerInstr struct {
	Instrs  []*mir.Instr
	LiveOut []Set
	LiveIn  Set // the block's live-in set, after the full backward pass
}

// Analyze runs one backward pass over b starting from liveOut (e.g. the
// phi uses of successor blocks, or empty for a block ending in `ret`).
func Analyze(b *mir.Block, liveOut Set) *PerInstr {
	n := len(b.Instrs)
	result := &PerInstr{Instrs: b.Instrs, LiveOut: make([]Set, n)}

	live := liveOut.Clone()
	for i := n - 1; i >= 0; i-- {
		mi := b.Instrs[i]
		result.LiveOut[i] = live.Clone()
		stepBackward(live, mi)
	}
	result.LiveIn = live
	return result
}

func stepBackward(live Set, mi *mir.Instr) {
	for _, def := range mi.Defs() {
		if def.IsRegister() && def.Value != nil {
			delete(live, def.Value)
		}
	}
	for _, use := range mi.Uses() {
		if use.IsRegister() && use.Value != nil {
			live[use.Value] = struct{}{}
		}
	}
}
