package main

import (
	"fmt"

	"github.com/kestrelcc/kestrel/internal/instsel"
	"github.com/kestrelcc/kestrel/internal/ir"
	"github.com/kestrelcc/kestrel/internal/logx"
	"github.com/kestrelcc/kestrel/internal/mir"
	"github.com/kestrelcc/kestrel/internal/schedule"
	"github.com/kestrelcc/kestrel/internal/target"
)

// runScenarios lowers and schedules (without register allocation) each of
// spec.md §8's Scenarios A, B, C, E and F and checks the property named in
// that scenario; Scenario D is not run here. It returns true iff every
// scenario's property held.
func runScenarios(desc *target.Description, log *logx.Logger, verbose bool) bool {
	scenarios := []struct {
		name  string
		check func(*target.Description) error
	}{
		{"A: constant-multiplied integer add", scenarioA},
		{"B: call with int and float args", scenarioB},
		{"C: setcc feeding branch", scenarioC},
		{"E: fp-to-int cast through memory", scenarioE},
		{"F: delay-slot fill", scenarioF},
	}

	ok := true
	for _, s := range scenarios {
		err := s.check(desc)
		status := "PASS"
		if err != nil {
			status = "FAIL"
			ok = false
		}
		if verbose || err != nil {
			fmt.Printf("[%s] %s", status, s.name)
			if err != nil {
				fmt.Printf(": %v", err)
			}
			fmt.Println()
		}
	}
	return ok
}

func lowerAndSchedule(desc *target.Description, f *ir.Function) *mir.Function {
	mf := mir.NewFunction(f)
	instsel.SelectFunction(desc, f, mf)
	for _, mb := range mf.Blocks {
		g := schedule.Build(desc, mb)
		schedule.Run(desc, g)
	}
	return mf
}

func scenarioA(desc *target.Description) error {
	f := ir.NewFunction("scenA", []*ir.Type{ir.TInt32}, ir.TInt32)
	b := ir.NewBuilder(f.AddBlock("entry"))
	r := b.Add(ir.TInt32, f.Args[0], ir.NewConstInt(ir.TInt32, 1))
	s := b.Mul(ir.TInt32, r, ir.NewConstInt(ir.TInt32, 4))
	b.Ret(s)

	mf := lowerAndSchedule(desc, f)
	// The ret's move into the result register and the return itself are
	// not part of the add/multiply sequence under test.
	n := 0
	mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
		if mi.Op == target.Return || (mi.Op == target.MoveIntToInt && mi.Operands[0].Kind == mir.MachineRegister) {
			return
		}
		n++
	})
	if n != 2 {
		return fmt.Errorf("want exactly 2 MIs (add, shift), got %d", n)
	}
	return nil
}

func scenarioB(desc *target.Description) error {
	callee := ir.NewFunctionValue("f", &ir.Type{Kind: ir.FuncType, Elem: ir.TVoid, Fields: []*ir.Type{ir.TInt32, ir.TFloat}})
	f := ir.NewFunction("scenB", []*ir.Type{ir.TInt32, ir.TFloat}, ir.TVoid)
	b := ir.NewBuilder(f.AddBlock("entry"))
	b.Call(ir.TVoid, callee, f.Args[0], f.Args[1])
	b.RetVoid()

	mf := lowerAndSchedule(desc, f)
	if !hasOpcode(mf, target.Call) {
		return fmt.Errorf("expected a call MI")
	}
	if !hasOpcode(mf, target.Nop) {
		return fmt.Errorf("expected a NOP delay slot after the call")
	}
	return nil
}

func scenarioC(desc *target.Description) error {
	f := ir.NewFunction("scenC", []*ir.Type{ir.TInt32}, ir.TVoid)
	thenB := f.AddBlock("entry")
	tBlock := f.AddBlock("T")
	fBlock := f.AddBlock("F")
	b := ir.NewBuilder(thenB)
	c := b.ICmp(ir.OpICmpSLT, f.Args[0], ir.NewConstInt(ir.TInt32, 5))
	b.CondBr(c, tBlock, fBlock)
	ir.NewBuilder(tBlock).RetVoid()
	ir.NewBuilder(fBlock).RetVoid()

	mf := lowerAndSchedule(desc, f)
	if !hasOpcode(mf, target.SubCC) {
		return fmt.Errorf("expected a sub-cc MI for the fold of icmp+condbr")
	}
	if !hasOpcode(mf, target.BranchOnCCLess) {
		return fmt.Errorf("expected a branch-on-CC-less MI")
	}
	return nil
}

func scenarioE(desc *target.Description) error {
	f := ir.NewFunction("scenE", []*ir.Type{ir.TDouble}, ir.TInt32)
	b := ir.NewBuilder(f.AddBlock("entry"))
	i := b.Cast(ir.CastFPToUI, ir.TInt32, f.Args[0])
	b.Ret(i)

	mf := lowerAndSchedule(desc, f)
	if !hasOpcode(mf, target.ConvertFloatToIntReg) {
		return fmt.Errorf("expected an fdtoi MI")
	}
	if !hasOpcode(mf, target.Store) || !hasOpcode(mf, target.Load) {
		return fmt.Errorf("expected a store/load pair through the scratch frame slot")
	}
	if !hasOpcode(mf, target.ShiftRightLogical) {
		return fmt.Errorf("expected a trailing logical right-shift to zero upper bits")
	}
	return nil
}

func scenarioF(desc *target.Description) error {
	f := ir.NewFunction("scenF", []*ir.Type{ir.TInt32, ir.TInt32}, ir.TVoid)
	entry := f.AddBlock("entry")
	exitBlock := f.AddBlock("L")
	b := ir.NewBuilder(entry)
	b.Add(ir.TInt32, f.Args[0], f.Args[1]) // unused result: not folded into any tree
	b.Br(exitBlock)
	ir.NewBuilder(exitBlock).RetVoid()

	mf := lowerAndSchedule(desc, f)
	entryMB := mf.BlockFor(entry)
	for i, mi := range entryMB.Instrs {
		if mi.Op == target.Jump || mi.Op == target.Branch {
			if i+1 >= len(entryMB.Instrs) {
				return fmt.Errorf("branch has no delay slot")
			}
			if entryMB.Instrs[i+1].Op == target.Nop {
				return fmt.Errorf("delay slot filled with NOP instead of the independent add")
			}
			return nil
		}
	}
	return fmt.Errorf("no branch found in entry block")
}

func countInstrs(mf *mir.Function) int {
	n := 0
	mf.AllInstrs(func(_ *mir.Block, _ *mir.Instr) { n++ })
	return n
}

func hasOpcode(mf *mir.Function, op target.Opcode) bool {
	found := false
	mf.AllInstrs(func(_ *mir.Block, mi *mir.Instr) {
		if mi.Op == op {
			found = true
		}
	})
	return found
}
