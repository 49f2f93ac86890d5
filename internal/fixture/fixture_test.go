package fixture

import (
	"math/rand/v2"
	"testing"

	"github.com/kestrelcc/kestrel/internal/ir"
)

func TestSimpleAddShape(t *testing.T) {
	f := SimpleAdd()
	if len(f.Args) != 2 {
		t.Fatalf("want 2 args, got %d", len(f.Args))
	}
	if len(f.Blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(f.Blocks))
	}
}

func TestBranchMaxShape(t *testing.T) {
	f := BranchMax()
	if len(f.Blocks) != 3 {
		t.Fatalf("want 3 blocks (entry/then/join), got %d", len(f.Blocks))
	}
}

func TestLoopSumShape(t *testing.T) {
	f := LoopSum()
	if len(f.Blocks) != 3 {
		t.Fatalf("want 3 blocks (entry/loop/exit), got %d", len(f.Blocks))
	}
}

func TestCallChainHasTwoFunctions(t *testing.T) {
	m := CallChain()
	if len(m.Functions) != 2 {
		t.Fatalf("want 2 functions, got %d", len(m.Functions))
	}
}

func TestSelfRecursiveCallsItself(t *testing.T) {
	m := SelfRecursive()
	if len(m.Functions) != 1 {
		t.Fatalf("want 1 function, got %d", len(m.Functions))
	}
	callsSelf := false
	for inst := m.Functions[0].Blocks[0].First(); inst != nil; inst = inst.Next() {
		if inst.Op == ir.OpCall && inst.Operand(0).Name == "fact" {
			callsSelf = true
		}
	}
	if !callsSelf {
		t.Fatal("fact has no call to fact")
	}
}

func TestRandomStraightLineIsDeterministicForFixedSeed(t *testing.T) {
	g1 := NewRandomGenerator(rand.New(rand.NewPCG(7, 7)))
	g2 := NewRandomGenerator(rand.New(rand.NewPCG(7, 7)))

	f1 := g1.RandomStraightLine(3, 10)
	f2 := g2.RandomStraightLine(3, 10)

	if len(f1.Blocks) != len(f2.Blocks) {
		t.Fatalf("same seed produced different block counts: %d vs %d", len(f1.Blocks), len(f2.Blocks))
	}
	if f1.Blocks[0].Len() != f2.Blocks[0].Len() {
		t.Fatalf("same seed produced different instruction counts")
	}
}

func TestRandomStraightLineWithZeroArgsUsesConstant(t *testing.T) {
	g := NewRandomGenerator(rand.New(rand.NewPCG(1, 1)))
	f := g.RandomStraightLine(0, 3)
	if len(f.Args) != 0 {
		t.Fatalf("want 0 args, got %d", len(f.Args))
	}
	if len(f.Blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(f.Blocks))
	}
	first := f.Blocks[0].First()
	if first == nil || first.NumOperands() != 2 {
		t.Fatal("want a first instruction with two operands")
	}
	for i := 0; i < 2; i++ {
		if first.Operand(i).ValueKind() != ir.ConstValue {
			t.Fatalf("operand %d of the first instruction is not a constant", i)
		}
	}
}
