package fixture

import (
	"math/rand/v2"

	"github.com/kestrelcc/kestrel/internal/ir"
)

// RandomGenerator produces random straight-line IR functions for property
// tests (SPEC_FULL.md "Testable properties"), grounded on
// pkg/stoke/mutator.go's *rand.Rand-injected, weighted-selection shape —
// the teacher's mutator picks among instruction-edit kinds with IntN(100)
// buckets, and this generator picks among IR opcodes the same way.
type RandomGenerator struct {
	rng *rand.Rand
}

func NewRandomGenerator(rng *rand.Rand) *RandomGenerator {
	return &RandomGenerator{rng: rng}
}

// RandomStraightLine builds a single-block function of nInstrs arithmetic
// instructions over nArgs integer arguments, each instruction consuming
// two previously-defined values (an argument or an earlier instruction's
// result) chosen uniformly at random — enough SSA structure to feed
// forest/instsel/schedule/regalloc's property tests without needing
// control flow.
func (g *RandomGenerator) RandomStraightLine(nArgs, nInstrs int) *ir.Function {
	argTypes := make([]*ir.Type, nArgs)
	for i := range argTypes {
		argTypes[i] = ir.TInt64
	}
	f := ir.NewFunction("random", argTypes, ir.TInt64)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(entry)

	pool := make([]*ir.Value, 0, nArgs+nInstrs)
	pool = append(pool, f.Args...)
	if len(pool) == 0 {
		pool = append(pool, ir.NewConstInt(ir.TInt64, 1))
	}

	for i := 0; i < nInstrs; i++ {
		lhs := pool[g.rng.IntN(len(pool))]
		rhs := pool[g.rng.IntN(len(pool))]
		var v *ir.Value
		switch g.rng.IntN(6) {
		case 0:
			v = b.Add(ir.TInt64, lhs, rhs)
		case 1:
			v = b.Sub(ir.TInt64, lhs, rhs)
		case 2:
			v = b.And(ir.TInt64, lhs, rhs)
		case 3:
			v = b.Or(ir.TInt64, lhs, rhs)
		case 4:
			v = b.Xor(ir.TInt64, lhs, rhs)
		default:
			v = b.Mul(ir.TInt64, lhs, rhs)
		}
		pool = append(pool, v)
	}

	b.Ret(pool[len(pool)-1])
	return f
}
