package regalloc

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// Patch implements spec.md §4.5 "Code patching": assigns every register
// operand its live range's physical register, inserts spill/reload traffic
// for spilled live ranges, inserts caller-save traffic around calls for
// live ranges that span them in a volatile colour, and fixes up entry
// arguments that didn't land on the colour they were suggested. Call
// argument and return-value placement is not fixed up.
func Patch(desc *target.Description, mf *mir.Function, lrs *LiveRanges) {
	assignColours(mf, lrs)
	patchSpills(desc, mf, lrs)
	patchCallerSaves(desc, mf, lrs)
	patchEntryArgs(desc, mf, lrs)
}

// assignColours writes each operand's Phys field from its live range,
// leaving Assigned false (and HasSpillOffset true) for spilled ranges so
// later passes know to treat them as memory operands.
func assignColours(mf *mir.Function, lrs *LiveRanges) {
	mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
		for _, o := range allOperands(mi) {
			if !o.IsRegister() || o.Value == nil {
				continue
			}
			lr := lrs.For(o.Value)
			if lr == nil {
				continue
			}
			if lr.Spilled {
				o.HasSpillOffset = true
				o.SpillOffset = lr.SpillOff
				continue
			}
			o.Assigned = true
			o.Phys = lr.Colour
		}
	})
}

// patchSpills implements spec.md §4.5's per-operand spill patching: every
// spilled operand is rewritten to scratch physical register 0, whatever is
// live at the MI, with a load before for uses and a store after for defs.
func patchSpills(desc *target.Description, mf *mir.Function, lrs *LiveRanges) {
	for _, mb := range mf.Blocks {
		for idx := 0; idx < len(mb.Instrs); idx++ {
			mi := mb.Instrs[idx]
			var before, after []*mir.Instr
			for _, o := range allOperands(mi) {
				if !o.HasSpillOffset {
					continue
				}
				scratch := target.PhysReg(0)
				if o.IsUse {
					before = append(before, &mir.Instr{
						Op: target.Load,
						Operands: []*mir.Operand{
							mir.MReg(scratch, o.Class, true, false),
							mir.MReg(framePointer(o.Class), o.Class, false, true),
							mir.SExtImm(int64(o.SpillOffset)),
						},
					})
				}
				o.Assigned = true
				o.Phys = scratch
				if o.IsDef {
					after = append(after, &mir.Instr{
						Op: target.Store,
						Operands: []*mir.Operand{
							mir.MReg(framePointer(o.Class), o.Class, false, true),
							mir.SExtImm(int64(o.SpillOffset)),
							mir.MReg(scratch, o.Class, false, true),
						},
					})
				}
			}
			if len(before) == 0 && len(after) == 0 {
				continue
			}
			insertAt := idx
			if desc.Info(mi.Op).HasDelaySlots() {
				insertAt += 1 + desc.Info(mi.Op).DelaySlots
			}
			for _, b := range before {
				mb.InsertBefore(idx, b)
				idx++
				insertAt++
			}
			for j, a := range after {
				mb.InsertAfter(insertAt+j, a)
			}
			idx = insertAt + len(after)
		}
	}
}

// framePointer is the reserved integer register holding the frame base;
// register 31 is the highest-numbered integer register and is never
// handed out by colouring's ColourOrder slices (spec.md reserves it as the
// frame/stack pointer, mirroring the reference SparcV9-style convention).
func framePointer(class target.RegClass) target.PhysReg {
	return 31
}

// patchCallerSaves implements spec.md §4.5: for each call whose
// caller-saved (volatile) physical registers are occupied by a
// call-spanning live range, save/restore around the call, skipping the
// call's own return-value register.
func patchCallerSaves(desc *target.Description, mf *mir.Function, lrs *LiveRanges) {
	for _, mb := range mf.Blocks {
		for idx := 0; idx < len(mb.Instrs); idx++ {
			mi := mb.Instrs[idx]
			if mi.Op != target.Call && mi.Op != target.CallIndirect {
				continue
			}
			retReg, retClass, hasRet := callReturnReg(mi)
			saved := make(map[target.PhysReg]bool)

			var before, after []*mir.Instr
			for _, lr := range lrs.Ranges {
				if !lr.HasColour || !lr.CallInterference {
					continue
				}
				rc := desc.Class(lr.Class)
				if !rc.IsVolatile(lr.Colour) {
					continue
				}
				if hasRet && lr.Colour == retReg && lr.Class == retClass {
					continue
				}
				key := lr.Colour
				if saved[key] {
					continue
				}
				saved[key] = true
				off := mf.AllocFrameSlot(8)
				before = append(before, &mir.Instr{Op: target.Store, Operands: []*mir.Operand{
					mir.MReg(framePointer(lr.Class), lr.Class, false, true),
					mir.SExtImm(int64(off)),
					mir.MReg(lr.Colour, lr.Class, false, true),
				}})
				after = append(after, &mir.Instr{Op: target.Load, Operands: []*mir.Operand{
					mir.MReg(lr.Colour, lr.Class, true, false),
					mir.MReg(framePointer(lr.Class), lr.Class, false, true),
					mir.SExtImm(int64(off)),
				}})
			}
			if len(before) == 0 {
				continue
			}
			for _, b := range before {
				mb.InsertBefore(idx, b)
				idx++
			}
			// The restore loads go right after the call's last delay-slot
			// MI (spec.md §4.5's final patching bullet).
			afterIdx := idx + desc.Info(mi.Op).DelaySlots
			for j, a := range after {
				mb.InsertAfter(afterIdx+j, a)
			}
			idx = afterIdx + len(after)
		}
	}
}

func callReturnReg(mi *mir.Instr) (target.PhysReg, target.RegClass, bool) {
	for _, o := range mi.Operands {
		if o.IsDef && o.IsRegister() {
			return o.Phys, o.Class, true
		}
	}
	return 0, 0, false
}

// patchEntryArgs implements spec.md §4.5's entry-argument patching: a
// function argument whose live range didn't land on its suggested
// argument register gets a register-to-register copy (if it got some
// other physical register) or a store of its argument register into its
// spill slot (if it was spilled).
func patchEntryArgs(desc *target.Description, mf *mir.Function, lrs *LiveRanges) {
	entry := mf.BlockFor(mf.Source.Entry)
	intIdx, floatIdx := target.PhysReg(0), target.PhysReg(0)
	var prologue []*mir.Instr
	for _, a := range mf.Source.Args {
		argReg := intIdx
		if a.Type.IsFloatingPoint() {
			argReg = floatIdx
			floatIdx++
		} else {
			intIdx++
		}
		lr := lrs.For(a)
		if lr == nil {
			continue
		}
		class := classOf(a.Type)
		if lr.Spilled {
			prologue = append(prologue, &mir.Instr{Op: target.Store, Operands: []*mir.Operand{
				mir.MReg(framePointer(class), class, false, true),
				mir.SExtImm(int64(lr.SpillOff)),
				mir.MReg(argReg, class, false, true),
			}})
			continue
		}
		if lr.HasColour && lr.Colour != argReg {
			op := target.MoveIntToInt
			if class == target.FloatClass {
				op = target.MoveFloatToFloat
			}
			prologue = append(prologue, &mir.Instr{Op: op, Operands: []*mir.Operand{
				mir.MReg(lr.Colour, class, true, false),
				mir.MReg(argReg, class, false, true),
			}})
		}
	}
	for i := len(prologue) - 1; i >= 0; i-- {
		entry.InsertBefore(0, prologue[i])
	}
}

func classOf(t *ir.Type) target.RegClass {
	if t.IsFloatingPoint() {
		return target.FloatClass
	}
	return target.IntClass
}
