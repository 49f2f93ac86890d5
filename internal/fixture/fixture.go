// Package fixture builds programmatic SSA modules for tests and the CLI
// harness's selftest subcommand, standing in for the unspecified front-end
// spec.md §6 deliberately leaves out of the core's contract.
package fixture

import "github.com/kestrelcc/kestrel/internal/ir"

// SimpleAdd builds `func add(a, b i64) i64 { return a + b }` — the
// smallest possible exercise of instruction selection, scheduling, and
// register allocation with no branches at all.
func SimpleAdd() *ir.Function {
	f := ir.NewFunction("add", []*ir.Type{ir.TInt64, ir.TInt64}, ir.TInt64)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(entry)
	sum := b.Add(ir.TInt64, f.Args[0], f.Args[1])
	b.Ret(sum)
	return f
}

// BranchMax builds `func max(a, b i64) i64 { if a < b { return b } return a }`
// — exercises setcc/condbr lowering and phi elimination.
func BranchMax() *ir.Function {
	f := ir.NewFunction("max", []*ir.Type{ir.TInt64, ir.TInt64}, ir.TInt64)
	entry := f.AddBlock("entry")
	thenB := f.AddBlock("then")
	join := f.AddBlock("join")

	eb := ir.NewBuilder(entry)
	cmp := eb.ICmp(ir.OpICmpSLT, f.Args[0], f.Args[1])
	eb.CondBr(cmp, thenB, join)

	tb := ir.NewBuilder(thenB)
	tb.Br(join)

	jb := ir.NewBuilder(join)
	phi := jb.Phi(ir.TInt64, f.Args[0], f.Args[1])
	jb.Ret(phi)
	return f
}

// LoopSum builds a single-block self-loop summing 1..n into an
// accumulator via a phi, exercising the scheduler's control-dependence
// and delay-slot-filling logic on a backward branch.
func LoopSum() *ir.Function {
	f := ir.NewFunction("loopsum", []*ir.Type{ir.TInt64}, ir.TInt64)
	entry := f.AddBlock("entry")
	loop := f.AddBlock("loop")
	exit := f.AddBlock("exit")

	eb := ir.NewBuilder(entry)
	eb.Br(loop)

	lb := ir.NewBuilder(loop)
	// Operand 0 comes from entry, operand 1 from the loop's own back edge;
	// the back-edge operands are set once the loop body defines them.
	accPhi := lb.Phi(ir.TInt64, ir.NewConstInt(ir.TInt64, 0), ir.NewConstInt(ir.TInt64, 0))
	ivPhi := lb.Phi(ir.TInt64, ir.NewConstInt(ir.TInt64, 1), ir.NewConstInt(ir.TInt64, 1))
	newAcc := lb.Add(ir.TInt64, accPhi, ivPhi)
	newIv := lb.Add(ir.TInt64, ivPhi, ir.NewConstInt(ir.TInt64, 1))
	accPhi.Instr.SetOperand(1, newAcc)
	ivPhi.Instr.SetOperand(1, newIv)
	cond := lb.ICmp(ir.OpICmpSLE, newIv, f.Args[0])
	lb.CondBr(cond, loop, exit)

	xb := ir.NewBuilder(exit)
	xb.Ret(newAcc)

	_ = newAcc
	return f
}

// MemoryChase builds a function that loads through a pointer argument,
// increments, and stores back — exercises the DS-graph local pass's
// argument/load/store handling and the scheduler's memory-order edges.
func MemoryChase(ptrElem *ir.Type) *ir.Function {
	f := ir.NewFunction("bump", []*ir.Type{ir.PointerTo(ptrElem)}, ir.TVoid)
	entry := f.AddBlock("entry")
	b := ir.NewBuilder(entry)
	v := b.Load(ptrElem, f.Args[0])
	one := ir.NewConstInt(ptrElem, 1)
	sum := b.Add(ptrElem, v, one)
	b.Store(sum, f.Args[0])
	b.RetVoid()
	return f
}

// CallChain builds caller(a) calling callee(a) = a*2, exercising
// dsgraph's closure (call-site inlining) and the call-args/return
// suggested-colour wiring in regalloc.
func CallChain() *ir.Module {
	m := &ir.Module{}

	callee := ir.NewFunction("double", []*ir.Type{ir.TInt64}, ir.TInt64)
	cb := ir.NewBuilder(callee.AddBlock("entry"))
	two := ir.NewConstInt(ir.TInt64, 2)
	cb.Ret(cb.Mul(ir.TInt64, callee.Args[0], two))
	m.AddFunction(callee)

	caller := ir.NewFunction("caller", []*ir.Type{ir.TInt64}, ir.TInt64)
	calleeVal := ir.NewFunctionValue("double", callee.Type)
	cab := ir.NewBuilder(caller.AddBlock("entry"))
	res := cab.Call(ir.TInt64, calleeVal, caller.Args[0])
	cab.Ret(res)
	m.AddFunction(caller)

	return m
}

// SelfRecursive builds a function that calls itself (fact(n) with a
// constant-folded base case omitted, since the core never runs mid-level
// optimisation) — exercises dsgraph.mergeSelfRecursiveCall.
func SelfRecursive() *ir.Module {
	m := &ir.Module{}
	f := ir.NewFunction("fact", []*ir.Type{ir.TInt64}, ir.TInt64)
	selfVal := ir.NewFunctionValue("fact", f.Type)

	entry := f.AddBlock("entry")
	b := ir.NewBuilder(entry)
	one := ir.NewConstInt(ir.TInt64, 1)
	n1 := b.Sub(ir.TInt64, f.Args[0], one)
	sub := b.Call(ir.TInt64, selfVal, n1)
	result := b.Mul(ir.TInt64, f.Args[0], sub)
	b.Ret(result)

	m.AddFunction(f)
	return m
}
