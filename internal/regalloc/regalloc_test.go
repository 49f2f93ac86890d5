package regalloc

import (
	"math/rand/v2"
	"testing"

	"github.com/kestrelcc/kestrel/internal/fixture"
	"github.com/kestrelcc/kestrel/internal/instsel"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/target"
)

// buildAllocated lowers one randomly generated straight-line function,
// builds its live ranges, suggests colours, builds interference, coalesces
// and colours (no scheduling and no patching), returning the live ranges
// and the interference graphs Colour ran against.
func buildAllocated(desc *target.Description, rng *rand.Rand, nArgs, nInstrs int) (*mir.Function, *LiveRanges, map[target.RegClass]*Graph) {
	gen := fixture.NewRandomGenerator(rng)
	f := gen.RandomStraightLine(nArgs, nInstrs)
	mf := mir.NewFunction(f)
	instsel.SelectFunction(desc, f, mf)

	lrs := Build(mf)
	suggestColours(desc, mf, lrs)
	graphs := BuildInterference(desc, mf, lrs)
	Coalesce(desc, mf, lrs, graphs)
	Colour(desc, mf, graphs)
	return mf, lrs, graphs
}

// TestColouringAvoidsInterferingCollisions checks invariant 6 of spec.md
// §8: no two interfering live ranges in the post-coalesce graph receive
// the same physical colour.
func TestColouringAvoidsInterferingCollisions(t *testing.T) {
	desc := target.NewDescription()
	rng := rand.New(rand.NewPCG(10, 10))

	for i := 0; i < 200; i++ {
		_, _, graphs := buildAllocated(desc, rng, 1+rng.IntN(4), 1+rng.IntN(16))
		for class, g := range graphs {
			for _, node := range g.Nodes {
				if node == nil || !node.LR.HasColour {
					continue
				}
				for _, nb := range g.neighbours(node.LR) {
					other := g.Nodes[nb]
					if other == nil || !other.LR.HasColour {
						continue
					}
					if other.LR.Colour == node.LR.Colour {
						t.Fatalf("run %d class %v: interfering ranges %d and %d both coloured %d",
							i, class, node.LR.ID, other.LR.ID, node.LR.Colour)
					}
				}
			}
		}
	}
}

// TestSpilledRangesGetDistinctOffsets checks that every spilled live range
// receives its own frame offset.
func TestSpilledRangesGetDistinctOffsets(t *testing.T) {
	desc := target.NewDescription()
	rng := rand.New(rand.NewPCG(11, 11))

	for i := 0; i < 200; i++ {
		mf, lrs, _ := buildAllocated(desc, rng, 1+rng.IntN(4), 1+rng.IntN(16))
		Patch(desc, mf, lrs)

		seen := map[int]bool{}
		for _, lr := range lrs.Ranges {
			if !lr.Spilled {
				continue
			}
			if seen[lr.SpillOff] {
				t.Fatalf("run %d: duplicate spill offset %d", i, lr.SpillOff)
			}
			seen[lr.SpillOff] = true
		}
	}
}

// TestSpillAcrossCall exercises Scenario D of spec.md §8: with one more
// simultaneously live integer than there are integer registers, and one of
// them live across a call, exactly one live range is spilled.
func TestSpillAcrossCall(t *testing.T) {
	desc := target.NewDescription()
	numInt := desc.Class(target.IntClass).NumRegs

	f := buildManyLiveAcrossCall(numInt + 1)
	mf := mir.NewFunction(f)
	instsel.SelectFunction(desc, f, mf)

	lrs := Build(mf)
	suggestColours(desc, mf, lrs)
	graphs := BuildInterference(desc, mf, lrs)
	Coalesce(desc, mf, lrs, graphs)
	Colour(desc, mf, graphs)

	spilled := 0
	for _, lr := range lrs.Ranges {
		if lr.Class == target.IntClass && lr.Spilled {
			spilled++
		}
	}
	if spilled != 1 {
		t.Fatalf("want exactly 1 spilled integer live range, got %d", spilled)
	}
}

// TestEveryOperandAssignedOrSpilled checks invariant 1 of spec.md §8: after
// Patch runs, every register operand carries either a physical register or
// a spill offset.
func TestEveryOperandAssignedOrSpilled(t *testing.T) {
	desc := target.NewDescription()
	rng := rand.New(rand.NewPCG(12, 12))

	for i := 0; i < 200; i++ {
		mf, lrs, _ := buildAllocated(desc, rng, 1+rng.IntN(4), 1+rng.IntN(16))
		Patch(desc, mf, lrs)

		mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
			for _, o := range append(append([]*mir.Operand{}, mi.Operands...), mi.Implicit...) {
				if !o.IsRegister() {
					continue
				}
				if !o.Assigned && !o.HasSpillOffset {
					t.Fatalf("run %d: operand neither assigned a register nor spilled", i)
				}
			}
		})
	}
}

// buildManyLiveAcrossCall builds a function taking n integer arguments, all
// of which stay live across an intervening call because every one of them
// feeds the final sum.
func buildManyLiveAcrossCall(n int) *ir.Function {
	argTypes := make([]*ir.Type, n)
	for i := range argTypes {
		argTypes[i] = ir.TInt64
	}
	f := ir.NewFunction("manyLive", argTypes, ir.TInt64)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(entry)

	callee := ir.NewFunctionValue("noop", &ir.Type{Kind: ir.FuncType, Elem: ir.TInt64})
	b.Call(ir.TInt64, callee)

	sum := f.Args[0]
	for i := 1; i < n; i++ {
		sum = b.Add(ir.TInt64, sum, f.Args[i])
	}
	b.Ret(sum)
	return f
}
