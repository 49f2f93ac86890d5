package codegen

import (
	"testing"

	"github.com/kestrelcc/kestrel/internal/fixture"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/logx"
	"github.com/kestrelcc/kestrel/internal/target"
)

func moduleOf(f *ir.Function) *ir.Module {
	m := &ir.Module{}
	m.AddFunction(f)
	return m
}

func TestCompileModuleFixtures(t *testing.T) {
	desc := target.NewDescription()
	log := logx.New(nil, logx.LevelNone)

	cases := []*ir.Module{
		moduleOf(fixture.SimpleAdd()),
		moduleOf(fixture.BranchMax()),
		moduleOf(fixture.LoopSum()),
		moduleOf(fixture.MemoryChase(ir.TInt64)),
		fixture.CallChain(),
		fixture.SelfRecursive(),
	}

	for i, m := range cases {
		reports, err := CompileModule(desc, m, log)
		if err != nil {
			t.Fatalf("case %d: CompileModule failed: %v", i, err)
		}
		if len(reports) == 0 {
			t.Fatalf("case %d: expected at least one report", i)
		}
		for _, r := range reports {
			if r.NumMIs == 0 {
				t.Errorf("case %d: function %s produced no MIs", i, r.Name)
			}
		}
	}
}

func TestPanicInLowerPassBecomesPassError(t *testing.T) {
	desc := target.NewDescription()
	log := logx.New(nil, logx.LevelNone)

	// A function with no blocks at all exercises the pipeline's boundary:
	// either it completes with an empty schedule and no live ranges (the
	// spec's "no instructions" boundary behaviour), or any internal
	// invariant violation surfaces as a *PassError rather than a raw panic.
	f := ir.NewFunction("empty", nil, ir.TVoid)
	_, err := CompileFunction(desc, f, log)
	if err != nil {
		if _, ok := err.(*PassError); !ok {
			t.Fatalf("expected a *PassError, got %T: %v", err, err)
		}
	}

	// A signed divide by a non-constant divisor has no lowering rule, so the
	// selector panics; CompileFunction must return that as a *PassError.
	d := ir.NewFunction("div", []*ir.Type{ir.TInt64, ir.TInt64}, ir.TInt64)
	b := ir.NewBuilder(d.AddBlock("entry"))
	b.Ret(b.SDiv(ir.TInt64, d.Args[0], d.Args[1]))
	_, err = CompileFunction(desc, d, log)
	if err == nil {
		t.Fatal("expected the selector panic on an unlowerable divide to surface as an error")
	}
	if _, ok := err.(*PassError); !ok {
		t.Fatalf("expected a *PassError, got %T: %v", err, err)
	}
}
