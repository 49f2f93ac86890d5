package instsel

import (
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// EliminatePhis inserts the copy MIs that materialise each phi's incoming
// values, one per predecessor edge, at the end of the predecessor block
// (before its terminator). The scheduler does not single these copies out:
// they enter the scheduling graph and are reordered like any other MI.
//
// spec.md is silent on how an incoming value maps to its predecessor edge;
// this selector resolves that open question positionally: predecessors for
// a block are enumerated in the order they are first discovered scanning
// the function's blocks in program order, and a phi's Nth incoming operand
// corresponds to the Nth predecessor in that order (documented in
// DESIGN.md).
func EliminatePhis(desc *target.Description, src *ir.Function, mf *mir.Function) {
	preds := predecessorsOf(src)

	for _, b := range src.Blocks {
		for inst := b.First(); inst != nil; inst = inst.Next() {
			if !inst.IsPhi() {
				continue
			}
			blockPreds := preds[b]
			dst := inst.Result()
			for i := 0; i < inst.NumOperands() && i < len(blockPreds); i++ {
				incoming := inst.Operand(i)
				predBlock := blockPreds[i]
				mb := mf.BlockFor(predBlock)
				insertCopyBeforeTerminator(mb, dst, incoming)
			}
		}
	}
}

func predecessorsOf(f *ir.Function) map[*ir.BasicBlock][]*ir.BasicBlock {
	preds := make(map[*ir.BasicBlock][]*ir.BasicBlock)
	for _, b := range f.Blocks {
		for _, succ := range b.Successors() {
			preds[succ] = append(preds[succ], b)
		}
	}
	return preds
}

func insertCopyBeforeTerminator(mb *mir.Block, dst, src *ir.Value) {
	var mi *mir.Instr
	if src.ValueKind() == ir.ConstValue && !src.Type.IsFloatingPoint() {
		mi = &mir.Instr{
			Op: target.AddImm,
			Operands: []*mir.Operand{
				mir.VReg(dst, regClassOf(dst.Type), true, false),
				mir.MReg(0, target.IntClass, false, true),
				mir.SExtImm(src.ConstInt),
			},
		}
	} else {
		op := target.MoveIntToInt
		if dst.Type.IsFloatingPoint() {
			op = target.MoveFloatToFloat
		}
		mi = &mir.Instr{
			Op:       op,
			Operands: []*mir.Operand{mir.VReg(dst, regClassOf(dst.Type), true, false), mir.VReg(src, regClassOf(src.Type), false, true)},
		}
	}
	mb.InsertBefore(lastInsertIndex(mb), mi)
}

// lastInsertIndex returns the index immediately before the block's
// terminator (or the end of the block, if it has none yet).
func lastInsertIndex(mb *mir.Block) int {
	idx := len(mb.Instrs)
	if mb.Last() != nil {
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
