// Package regalloc implements the graph-colouring register allocator
// (spec.md §4.5, component C10): live-range construction, interference
// graph construction with coalescing, Briggs-style colouring per register
// class, and the code-patching pass that rewrites MIs once colours (or
// spill slots) are assigned.
package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// LiveRange is one SSA value's (or function argument's) register home,
// before colouring (spec.md §4.5 "Live-range construction"). Multiple
// defining MIs for the same IR value — e.g. a spilled/rematerialised
// value, or a phi whose copies all write the same destination — are
// unioned into one LiveRange.
type LiveRange struct {
	ID    int
	Class target.RegClass

	// Defs/Uses are every MI operand that refers to a value in this range.
	Defs []*mir.Operand
	Uses []*mir.Operand

	CallInterference bool
	IsDouble         bool // true for a float-class range backed by a double-typed value

	SuggestedColour target.PhysReg
	HasSuggestion   bool
	SuggestionBad   bool // unusable: volatile + spans a call

	Colour    target.PhysReg
	HasColour bool
	Spilled   bool
	SpillOff  int
}

// LiveRanges is the set of live ranges for one function plus the lookup
// from an IR value to its range.
type LiveRanges struct {
	Ranges []*LiveRange
	ofVal  map[*ir.Value]*LiveRange
}

func (lr *LiveRanges) For(v *ir.Value) *LiveRange { return lr.ofVal[v] }

func (lr *LiveRanges) setFor(v *ir.Value, target *LiveRange) { lr.ofVal[v] = target }

func (lr *LiveRanges) ofValExported() map[*ir.Value]*LiveRange { return lr.ofVal }

// Build constructs one LiveRange per distinct SSA value referenced by a
// register operand in mf, unioning multiple defining sites of the same
// value (spec.md §4.5 "Live-range construction").
func Build(mf *mir.Function) *LiveRanges {
	lrs := &LiveRanges{ofVal: make(map[*ir.Value]*LiveRange)}

	ensure := func(v *ir.Value, class target.RegClass) *LiveRange {
		if lr, ok := lrs.ofVal[v]; ok {
			return lr
		}
		lr := &LiveRange{ID: len(lrs.Ranges), Class: class, SuggestedColour: -1}
		lrs.Ranges = append(lrs.Ranges, lr)
		lrs.ofVal[v] = lr
		return lr
	}

	mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
		for _, o := range allOperands(mi) {
			if !o.IsRegister() || o.Value == nil {
				continue
			}
			lr := ensure(o.Value, o.Class)
			if o.Class == target.FloatClass && o.Value.Type != nil && o.Value.Type.Kind == ir.Double {
				lr.IsDouble = true
			}
			if o.IsDef {
				lr.Defs = append(lr.Defs, o)
			}
			if o.IsUse {
				lr.Uses = append(lr.Uses, o)
			}
		}
	})

	return lrs
}

func allOperands(mi *mir.Instr) []*mir.Operand {
	out := make([]*mir.Operand, 0, len(mi.Operands)+len(mi.Implicit))
	out = append(out, mi.Operands...)
	out = append(out, mi.Implicit...)
	return out
}
