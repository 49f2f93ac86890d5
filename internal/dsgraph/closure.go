package dsgraph

import "github.com/kestrelcc/kestrel/internal/ir"

// Program is the set of per-function local graphs closure.go works over,
// plus the module they were built from (needed to resolve direct-call
// callees by name).
type Program struct {
	Module *ir.Module
	Graphs map[*ir.Function]*Graph
}

// BuildProgram runs BuildLocal over every defined function in m.
func BuildProgram(m *ir.Module) *Program {
	p := &Program{Module: m, Graphs: make(map[*ir.Function]*Graph)}
	for _, f := range m.Functions {
		if f.Extern {
			continue
		}
		p.Graphs[f] = BuildLocal(f)
	}
	for _, f := range m.Functions {
		if g, ok := p.Graphs[f]; ok {
			resolveCallees(p, g)
		}
	}
	return p
}

func resolveCallees(p *Program, g *Graph) {
	for _, cs := range g.CallSites {
		if cs.CalleeName == "" {
			continue
		}
		if callee := p.Module.FindFunction(cs.CalleeName); callee != nil && !callee.Extern {
			cs.CalleeFunc = callee
		}
	}
}

// Close computes the bottom-up closure of every function's local graph
// (spec.md §4.6 "closure: post-order over the call graph, inlining each
// call site's callee graph into the caller"). A self-recursive call site is
// closed by merging its actuals directly into the function's own formal and
// return handles (mergeSelfRecursiveCall), without cloning or recursing
// (SPEC_FULL.md supplemented feature
// #1, grounded on original_source's BU data structure pass handling of
// recursive SCCs).
func Close(p *Program) {
	state := make(map[*ir.Function]int) // 0 unvisited, 1 in-progress, 2 done
	var visit func(f *ir.Function)
	visit = func(f *ir.Function) {
		g, ok := p.Graphs[f]
		if !ok || state[f] == 2 {
			return
		}
		if state[f] == 1 {
			// Back edge: self/mutual recursion. The callee graph is still
			// under construction; close against what exists so far and let
			// the outer call finish the job once the SCC unwinds.
			closeFunctionSCCEdge(p, g)
			return
		}
		state[f] = 1
		for _, cs := range g.CallSites {
			if cs.CalleeFunc == nil || cs.CalleeFunc == f {
				continue // indirect call, or direct self-recursion (handled below)
			}
			visit(cs.CalleeFunc)
		}
		closeFunctionCalls(p, g)
		state[f] = 2
	}
	for _, f := range p.Module.Functions {
		visit(f)
	}
}

// closeFunctionCalls inlines every resolved call site's callee graph into g.
func closeFunctionCalls(p *Program, g *Graph) {
	for _, cs := range g.CallSites {
		if cs.Resolved {
			continue
		}
		callee := cs.CalleeFunc
		if callee == nil {
			markUnknownCallSite(cs)
			cs.Resolved = true
			continue
		}
		calleeGraph, ok := p.Graphs[callee]
		if !ok {
			cs.Resolved = true
			continue
		}
		if callee == cs.Call.Block.Func {
			mergeSelfRecursiveCall(g, calleeGraph, callee, cs)
		} else {
			inlineCallSite(g, calleeGraph, callee, cs)
		}
		cs.Resolved = true
	}
}

// closeFunctionSCCEdge is invoked when the closure visits a function that is
// already being resolved higher up the call stack (a recursive cycle). It
// flags the nodes of every formal parameter and of the return value
// FlagUnknown|FlagIncomplete (without folding them) so the
// eventual real merge in the cycle's root is conservative but sound,
// matching the original's "leave a node describing anything could be there"
// treatment of recursive SCCs it chooses not to fully fix-point.
func closeFunctionSCCEdge(p *Program, g *Graph) {
	for _, arg := range g.Func.Args {
		if h, ok := g.ScalarMap[arg]; ok {
			if n := h.Resolve().Node; n != nil {
				n.Flags |= FlagUnknown | FlagIncomplete
			}
		}
	}
	if n := g.ReturnNode.Resolve().Node; n != nil {
		n.Flags |= FlagUnknown | FlagIncomplete
	}
}

func markUnknownCallSite(cs *CallSite) {
	if n := cs.RetVal.Resolve().Node; n != nil {
		n.Flags |= FlagUnknown | FlagIncomplete
	}
	for _, a := range cs.Args {
		if n := a.Resolve().Node; n != nil {
			n.Flags |= FlagUnknown | FlagModified | FlagRead
		}
	}
}

// inlineCallSite clones the callee's graph into the caller's node arena
// (clone.go) and merges the clone's formal-argument and return nodes with
// the call site's actual argument and return-value handles (spec.md §4.6
// "call-site inlining: clone callee graph, unify formals with actuals").
func inlineCallSite(caller *Graph, calleeGraph *Graph, callee *ir.Function, cs *CallSite) {
	clone := CloneInto(caller, calleeGraph, CloneFlags{StripAllocas: false, StripGlobals: true})

	for i, arg := range callee.Args {
		if i >= len(cs.Args) {
			break
		}
		formal, ok := calleeGraph.ScalarMap[arg]
		if !ok {
			continue
		}
		Merge(clone.remap(formal), cs.Args[i])
	}

	if !calleeGraph.ReturnNode.IsNull() && !cs.RetVal.IsNull() {
		Merge(clone.remap(calleeGraph.ReturnNode), cs.RetVal)
	}

	for _, innerCS := range calleeGraph.CallSites {
		caller.AuxCallSites = append(caller.AuxCallSites, remapCallSite(clone, innerCS))
	}
}

// mergeSelfRecursiveCall handles a function calling itself: rather than
// cloning (which would recurse forever), the call site's actuals are merged
// directly against the caller's own formal/return nodes, over-approximating
// but terminating in one pass (SPEC_FULL.md supplemented feature #1).
func mergeSelfRecursiveCall(g *Graph, _ *Graph, callee *ir.Function, cs *CallSite) {
	for i, arg := range callee.Args {
		if i >= len(cs.Args) {
			break
		}
		if formal, ok := g.ScalarMap[arg]; ok {
			Merge(formal, cs.Args[i])
		}
	}
	if !g.ReturnNode.IsNull() && !cs.RetVal.IsNull() {
		Merge(g.ReturnNode, cs.RetVal)
	}
}

func remapCallSite(clone *cloneResult, cs *CallSite) *CallSite {
	out := &CallSite{
		Call:       cs.Call,
		Callee:     cs.Callee,
		CalleeName: cs.CalleeName,
		CalleeFunc: cs.CalleeFunc,
		RetVal:     clone.remap(cs.RetVal),
	}
	for _, a := range cs.Args {
		out.Args = append(out.Args, clone.remap(a))
	}
	return out
}
