package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// suggestColours marks suggested physical registers for incoming
// arguments, call outgoing arguments, call return values, and return
// instruction values (spec.md §4.5 "Suggested colours"), before
// interference construction so coalescing/colouring can honour them.
func suggestColours(desc *target.Description, mf *mir.Function, lrs *LiveRanges) {
	suggestEntryArgs(mf, lrs)

	mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
		switch mi.Op {
		case target.Call, target.CallIndirect:
			suggestCallArgs(desc, mi, lrs)
			suggestCallReturn(mi, lrs)
		case target.Return:
			suggestReturnValue(mi, lrs)
		}
	})
}

func suggest(lr *LiveRange, r target.PhysReg) {
	if lr == nil || lr.HasSuggestion {
		return
	}
	lr.SuggestedColour = r
	lr.HasSuggestion = true
}

func suggestEntryArgs(mf *mir.Function, lrs *LiveRanges) {
	intIdx, floatIdx := target.PhysReg(0), target.PhysReg(0)
	for _, a := range mf.Source.Args {
		lr := lrs.For(a)
		if lr == nil {
			continue
		}
		if a.Type.IsFloatingPoint() {
			suggest(lr, floatIdx)
			floatIdx++
		} else {
			suggest(lr, intIdx)
			intIdx++
		}
	}
}

func suggestCallArgs(desc *target.Description, mi *mir.Instr, lrs *LiveRanges) {
	if mi.CallArgs == nil {
		return
	}
	argOps := mi.Implicit[1:] // Implicit[0] is the synthetic return-address def
	intIdx, floatIdx := target.PhysReg(0), target.PhysReg(0)
	for i, placement := range mi.CallArgs.Placements {
		if i >= len(argOps) {
			break
		}
		switch placement {
		case mir.ArgInIntReg:
			suggest(lrFor(lrs, argOps[i]), intIdx)
			intIdx++
		case mir.ArgInFloatReg:
			suggest(lrFor(lrs, argOps[i]), floatIdx)
			floatIdx++
		}
	}
}

func suggestCallReturn(mi *mir.Instr, lrs *LiveRanges) {
	for _, o := range mi.Operands {
		if o.IsDef && o.IsRegister() {
			suggest(lrFor(lrs, o), 0)
		}
	}
}

func suggestReturnValue(mi *mir.Instr, lrs *LiveRanges) {
	for _, o := range mi.Operands {
		if o.IsUse && o.IsRegister() {
			suggest(lrFor(lrs, o), 0)
		}
	}
}

func lrFor(lrs *LiveRanges, o *mir.Operand) *LiveRange {
	if o == nil || o.Value == nil {
		return nil
	}
	return lrs.For(o.Value)
}
